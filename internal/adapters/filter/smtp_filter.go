package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/whitelist"
)

const (
	analysisErrorHeader = "X-Spam-Analysis-Error"
	maxMessageBytes     = 30 * 1024 * 1024
	maxRecipients       = 50
	relayDialTimeout    = 10 * time.Second
)

// deliverFunc hands a screened message to the next hop
type deliverFunc func(sender string, recipients []string, data []byte) error

// SMTPFilter is an SMTP content filter that tags (or rejects) spam before relaying it
type SMTPFilter struct {
	classifier core.Classifier
	normalizer core.Normalizer
	whitelist  *whitelist.Checker
	cfg        config.SMTPConfig
	logger     *zap.Logger
	server     *smtp.Server
	listener   net.Listener
	deliver    deliverFunc
}

// Screening is the outcome of classifying one message
type Screening struct {
	Result      *core.ClassificationResult
	Whitelisted bool
	Err         error
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	classifier core.Classifier,
	normalizer core.Normalizer,
	checker *whitelist.Checker,
	cfg config.SMTPConfig,
	logger *zap.Logger,
) *SMTPFilter {
	// If subject prefix is not set but modify subject is enabled, use default prefix
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = "[**SPAM**] "
	}

	f := &SMTPFilter{
		classifier: classifier,
		normalizer: normalizer,
		whitelist:  checker,
		cfg:        cfg,
		logger:     logger,
	}
	f.deliver = f.relay
	return f
}

// Name identifies the filter in logs
func (f *SMTPFilter) Name() string {
	return "smtp"
}

// Start binds the listen address and serves SMTP in the background
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = f.cfg.Domain
	f.server.ReadTimeout = f.cfg.Timeout
	f.server.WriteTimeout = f.cfg.Timeout
	f.server.MaxMessageBytes = maxMessageBytes
	f.server.MaxRecipients = maxRecipients

	l, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}
	f.listener = l

	f.logger.Info("SMTP filter starting",
		zap.String("address", l.Addr().String()),
		zap.Bool("relay", f.cfg.RelayEnabled),
		zap.Bool("block_spam", f.cfg.BlockSpam))

	go func() {
		if err := f.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (f *SMTPFilter) Addr() string {
	if f.listener == nil {
		return ""
	}
	return f.listener.Addr().String()
}

// Stop stops the SMTP filter
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// Screen classifies a parsed message. Whitelisted senders skip the model.
// A classification failure is reported in Err and never marks mail as spam.
func (f *SMTPFilter) Screen(ctx context.Context, sender string, msg *mail.Message) Screening {
	if f.whitelist != nil && f.whitelist.IsWhitelisted(sender) {
		return Screening{
			Whitelisted: true,
			Result: &core.ClassificationResult{
				Confidence:  1,
				Explanation: "Sender domain is whitelisted",
				TopFeatures: []string{},
			},
		}
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return Screening{Err: fmt.Errorf("failed to extract text content: %w", err)}
	}

	text := body
	if subject := decodedSubject(msg); subject != "" {
		text = subject + "\n\n" + body
	}
	if strings.TrimSpace(text) == "" {
		return Screening{Err: core.ErrEmptyInput}
	}

	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	result, err := f.classifier.Classify(ctx, text, f.normalizer.Normalize(text))
	if err != nil {
		return Screening{Err: err}
	}
	return Screening{Result: result}
}

// Process screens one raw message and delivers the tagged copy.
// Spam is refused with 550 when blocking is enabled.
func (f *SMTPFilter) Process(ctx context.Context, sender string, recipients []string, raw []byte) error {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		f.logger.Error("Failed to parse email message", zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	senderDomain := whitelist.SenderDomain(sender)
	screening := f.Screen(ctx, sender, msg)
	if screening.Err != nil {
		f.logger.Error("Failed to analyze email",
			zap.Error(screening.Err),
			zap.String("sender", sender),
			zap.String("sender_domain", senderDomain))
	}

	isSpam := screening.Result != nil && screening.Result.IsSpam
	if isSpam && f.cfg.BlockSpam {
		f.logger.Info("Rejecting spam email",
			zap.String("from", sender),
			zap.String("sender_domain", senderDomain),
			zap.Float64("confidence", screening.Result.Confidence),
			zap.String("reason", screening.Result.Explanation))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as spam (confidence: %.2f)", screening.Result.Confidence),
		}
	}

	tagged := rewriteMessage(raw, f.headersFor(screening), f.screeningHeaderNames(), f.subjectFor(msg, isSpam))

	if f.cfg.RelayEnabled {
		if err := f.deliver(sender, recipients, tagged); err != nil {
			f.logger.Error("Failed to relay email",
				zap.Error(err),
				zap.String("sender", sender))
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 4, 1},
				Message:      "Relay unavailable, try again later",
			}
		}
	} else {
		f.logger.Warn("Relay disabled, screened message is dropped", zap.String("sender", sender))
	}

	f.logger.Info("Processed email",
		zap.String("from", sender),
		zap.String("sender_domain", senderDomain),
		zap.Bool("is_spam", isSpam),
		zap.Bool("whitelisted", screening.Whitelisted),
		zap.Bool("analysis_failed", screening.Err != nil))

	return nil
}

func (f *SMTPFilter) headersFor(s Screening) []headerField {
	if s.Err != nil {
		return []headerField{
			{f.cfg.SpamHeader, "false"},
			{f.cfg.ConfidenceHeader, "0.0000"},
			{analysisErrorHeader, analysisErrorText(s.Err)},
		}
	}
	return []headerField{
		{f.cfg.SpamHeader, strconv.FormatBool(s.Result.IsSpam)},
		{f.cfg.ConfidenceHeader, strconv.FormatFloat(s.Result.Confidence, 'f', 4, 64)},
		{f.cfg.ReasonHeader, s.Result.Explanation},
	}
}

// screeningHeaderNames lists every header the filter writes. Copies arriving
// with the message are dropped so only the filter's verdict reaches the next hop.
func (f *SMTPFilter) screeningHeaderNames() []string {
	return []string{f.cfg.SpamHeader, f.cfg.ConfidenceHeader, f.cfg.ReasonHeader, analysisErrorHeader}
}

func analysisErrorText(err error) string {
	if errors.Is(err, core.ErrEmptyInput) {
		return "No text content"
	}
	if core.IsClassificationError(err) {
		return err.Error()
	}
	return "Unable to analyze message"
}

// subjectFor returns the rewritten subject, or "" to leave it untouched
func (f *SMTPFilter) subjectFor(msg *mail.Message, isSpam bool) string {
	if !isSpam || !f.cfg.ModifySubject || f.cfg.SubjectPrefix == "" {
		return ""
	}
	subject := decodedSubject(msg)
	if strings.HasPrefix(subject, f.cfg.SubjectPrefix) {
		return ""
	}
	return f.cfg.SubjectPrefix + subject
}

func decodedSubject(msg *mail.Message) string {
	original := msg.Header.Get("Subject")
	decoded, err := decodeEncodedHeader(original)
	if err != nil {
		return original
	}
	return decoded
}

type headerField struct {
	name  string
	value string
}

// rewriteMessage prepends extra headers, removes any existing header named in
// strip and optionally replaces the Subject, keeping the remaining header
// order and body bytes.
func rewriteMessage(raw []byte, extra []headerField, strip []string, newSubject string) []byte {
	headerEnd, bodyStart := splitHeader(raw)

	var out bytes.Buffer
	for _, h := range extra {
		if h.name == "" {
			continue
		}
		fmt.Fprintf(&out, "%s: %s\r\n", h.name, headerValue(h.value))
	}

	lines := strings.SplitAfter(string(raw[:headerEnd]), "\n")
	replaced := false
	skipping := false
	for _, line := range lines {
		if line == "" {
			continue
		}
		if skipping && (line[0] == ' ' || line[0] == '\t') {
			continue
		}
		skipping = false
		if hasAnyHeaderName(line, strip) {
			skipping = true
			continue
		}
		if newSubject != "" && hasHeaderName(line, "Subject") {
			fmt.Fprintf(&out, "Subject: %s\r\n", headerValue(newSubject))
			replaced = true
			skipping = true
			continue
		}
		out.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			out.WriteString("\r\n")
		}
	}
	if newSubject != "" && !replaced {
		fmt.Fprintf(&out, "Subject: %s\r\n", headerValue(newSubject))
	}

	out.WriteString("\r\n")
	out.Write(raw[bodyStart:])
	return out.Bytes()
}

// splitHeader returns where the header block ends and the body begins
func splitHeader(raw []byte) (int, int) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return i + 2, i + 4
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return i + 1, i + 2
	}
	return len(raw), len(raw)
}

func hasHeaderName(line, name string) bool {
	colon := strings.IndexByte(line, ':')
	return colon > 0 && strings.EqualFold(strings.TrimSpace(line[:colon]), name)
}

func hasAnyHeaderName(line string, names []string) bool {
	for _, name := range names {
		if name != "" && hasHeaderName(line, name) {
			return true
		}
	}
	return false
}

// headerValue flattens a value onto one line so it cannot inject headers
func headerValue(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// relay sends the screened message to the configured next hop using go-smtp
func (f *SMTPFilter) relay(sender string, recipients []string, data []byte) error {
	addr := net.JoinHostPort(f.cfg.RelayAddress, strconv.Itoa(f.cfg.RelayPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, relayDialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	if f.cfg.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(f.cfg.Timeout)); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set connection deadline: %w", err)
		}
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message is already accepted at this point
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data reads the message and hands it to the filter
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	return s.filter.Process(context.Background(), s.sender, s.recipients, raw)
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
