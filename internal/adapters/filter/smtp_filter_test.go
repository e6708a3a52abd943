package filter

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/utils"
	"github.com/mikey/spam-guardian/internal/whitelist"
)

const scamMessage = "From: Prize Desk <desk@lottery.example>\r\n" +
	"To: you@example.org\r\n" +
	"Subject: You WON\r\n" +
	"\r\n" +
	"Claim your FREE money now at http://scam.example\r\n"

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, rawText, cleanedText string) (*core.ClassificationResult, error) {
	args := m.Called(ctx, rawText, cleanedText)
	result, _ := args.Get(0).(*core.ClassificationResult)
	return result, args.Error(1)
}

type delivery struct {
	sender     string
	recipients []string
	data       string
}

func testSMTPConfig() config.SMTPConfig {
	return config.SMTPConfig{
		ListenAddress:    "127.0.0.1:0",
		Domain:           "localhost",
		Timeout:          5 * time.Second,
		SpamHeader:       "X-Spam-Status",
		ConfidenceHeader: "X-Spam-Confidence",
		ReasonHeader:     "X-Spam-Reason",
		RelayEnabled:     true,
		RelayAddress:     "127.0.0.1",
	}
}

func newTestFilter(c core.Classifier, cfg config.SMTPConfig, domains ...string) (*SMTPFilter, *[]delivery) {
	f := NewSMTPFilter(c, utils.NewTextProcessor(zap.NewNop()), whitelist.NewChecker(domains, zap.NewNop()), cfg, zap.NewNop())
	var delivered []delivery
	f.deliver = func(sender string, recipients []string, data []byte) error {
		delivered = append(delivered, delivery{sender, recipients, string(data)})
		return nil
	}
	return f, &delivered
}

func sendThroughSession(t *testing.T, f *SMTPFilter, from string, raw string) error {
	t.Helper()
	sess, err := (&smtpBackend{filter: f}).NewSession(nil)
	require.NoError(t, err)
	require.NoError(t, sess.Mail(from, nil))
	require.NoError(t, sess.Rcpt("you@example.org", nil))
	return sess.Data(strings.NewReader(raw))
}

func TestSessionTagsSpam(t *testing.T) {
	c := &mockClassifier{}
	c.On("Classify", mock.Anything,
		mock.MatchedBy(func(raw string) bool { return strings.HasPrefix(raw, "You WON\n\n") }),
		"you won claim your free money now at").
		Return(&core.ClassificationResult{IsSpam: true, Confidence: 0.97, Explanation: "Prize\r\nInjected: yes"}, nil).Once()

	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	f, delivered := newTestFilter(c, cfg)

	require.NoError(t, sendThroughSession(t, f, "desk@lottery.example", scamMessage))
	require.Len(t, *delivered, 1)

	got := (*delivered)[0]
	assert.Equal(t, "desk@lottery.example", got.sender)
	assert.Equal(t, []string{"you@example.org"}, got.recipients)
	assert.True(t, strings.HasPrefix(got.data, "X-Spam-Status: true\r\nX-Spam-Confidence: 0.9700\r\nX-Spam-Reason: Prize Injected: yes\r\n"))
	assert.Contains(t, got.data, "Subject: [**SPAM**] You WON\r\n")
	assert.NotContains(t, got.data, "Subject: You WON")
	assert.True(t, strings.HasSuffix(got.data, "\r\n\r\nClaim your FREE money now at http://scam.example\r\n"))
	c.AssertExpectations(t)
}

func TestSessionReplacesSenderSuppliedVerdict(t *testing.T) {
	c := &mockClassifier{}
	c.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Return(&core.ClassificationResult{IsSpam: true, Confidence: 0.91, Explanation: "Lottery lure"}, nil).Once()

	f, delivered := newTestFilter(c, testSMTPConfig())
	planted := "X-Spam-Status: false\r\n" +
		"x-spam-confidence: 0.0001\r\n" +
		"X-Spam-Reason: Trusted\r\n\tpartner mail\r\n" +
		"X-Spam-Analysis-Error: none\r\n" +
		scamMessage

	require.NoError(t, sendThroughSession(t, f, "desk@lottery.example", planted))
	require.Len(t, *delivered, 1)

	data := (*delivered)[0].data
	assert.True(t, strings.HasPrefix(data, "X-Spam-Status: true\r\nX-Spam-Confidence: 0.9100\r\nX-Spam-Reason: Lottery lure\r\nFrom: "))
	assert.Equal(t, 1, strings.Count(strings.ToLower(data), "x-spam-status:"))
	assert.Equal(t, 1, strings.Count(strings.ToLower(data), "x-spam-confidence:"))
	assert.NotContains(t, data, "Trusted")
	assert.NotContains(t, data, "partner mail")
	assert.NotContains(t, data, "X-Spam-Analysis-Error")
}

func TestSessionBlocksSpam(t *testing.T) {
	c := &mockClassifier{}
	c.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Return(&core.ClassificationResult{IsSpam: true, Confidence: 0.9}, nil).Once()

	cfg := testSMTPConfig()
	cfg.BlockSpam = true
	f, delivered := newTestFilter(c, cfg)

	err := sendThroughSession(t, f, "desk@lottery.example", scamMessage)
	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 550, smtpErr.Code)
	assert.Empty(t, *delivered)
}

func TestClassificationFailureNeverRejects(t *testing.T) {
	c := &mockClassifier{}
	c.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &core.ClassificationError{Op: "complete", Err: errors.New("timeout")}).Once()

	cfg := testSMTPConfig()
	cfg.BlockSpam = true
	f, delivered := newTestFilter(c, cfg)

	require.NoError(t, sendThroughSession(t, f, "desk@lottery.example", scamMessage))
	require.Len(t, *delivered, 1)
	assert.Contains(t, (*delivered)[0].data, "X-Spam-Status: false\r\n")
	assert.Contains(t, (*delivered)[0].data, "X-Spam-Analysis-Error: "+core.ClassificationFailedMessage+"\r\n")
	assert.NotContains(t, (*delivered)[0].data, "timeout")
}

func TestWhitelistedSenderSkipsClassifier(t *testing.T) {
	c := &mockClassifier{}
	cfg := testSMTPConfig()
	cfg.BlockSpam = true
	f, delivered := newTestFilter(c, cfg, "lottery.example")

	require.NoError(t, sendThroughSession(t, f, "desk@lottery.example", scamMessage))
	require.Len(t, *delivered, 1)
	assert.Contains(t, (*delivered)[0].data, "X-Spam-Reason: Sender domain is whitelisted\r\n")
	c.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything, mock.Anything)
}

func TestMalformedMessageIsRefused(t *testing.T) {
	f, delivered := newTestFilter(&mockClassifier{}, testSMTPConfig())

	err := sendThroughSession(t, f, "a@b.example", "not a header line\r\n")
	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 554, smtpErr.Code)
	assert.Empty(t, *delivered)
}

func TestRelayFailureIsTemporary(t *testing.T) {
	c := &mockClassifier{}
	c.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Return(&core.ClassificationResult{Explanation: "fine"}, nil).Once()

	f, _ := newTestFilter(c, testSMTPConfig())
	f.deliver = func(string, []string, []byte) error { return errors.New("connection refused") }

	err := sendThroughSession(t, f, "friend@example.org", scamMessage)
	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 451, smtpErr.Code)
}

func TestRewriteMessage(t *testing.T) {
	raw := []byte("Subject: =?UTF-8?B?V2luIG5vdyE=?=\n folded tail\nFrom: a@b.example\n\nbody\n")
	out := string(rewriteMessage(raw, []headerField{{"X-Test", "1"}, {"", "skipped"}}, nil, "[SPAM] Win now!"))

	assert.Equal(t, "X-Test: 1\r\nSubject: [SPAM] Win now!\r\nFrom: a@b.example\n\r\nbody\n", out)

	// headers only, no body separator
	out = string(rewriteMessage([]byte("From: a@b.example"), nil, nil, "new"))
	assert.Equal(t, "From: a@b.example\r\nSubject: new\r\n\r\n", out)
}

// captureBackend is a minimal next-hop MTA recording what it receives
type captureBackend struct {
	received chan string
}

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{received: b.received}, nil
}

type captureSession struct {
	received chan string
}

func (s *captureSession) Reset()                               {}
func (s *captureSession) Logout() error                        { return nil }
func (s *captureSession) Mail(string, *smtp.MailOptions) error { return nil }
func (s *captureSession) Rcpt(string, *smtp.RcptOptions) error { return nil }
func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.received <- string(data)
	return nil
}

func TestEndToEndRelay(t *testing.T) {
	backend := &captureBackend{received: make(chan string, 1)}
	relayServer := smtp.NewServer(backend)
	relayServer.Domain = "relay.test"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = relayServer.Serve(ln) }()
	t.Cleanup(func() { _ = relayServer.Close() })

	c := &mockClassifier{}
	c.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Return(&core.ClassificationResult{IsSpam: false, Confidence: 0.12, Explanation: "Personal note."}, nil).Once()

	cfg := testSMTPConfig()
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	cfg.RelayAddress = host
	cfg.RelayPort, err = strconv.Atoi(port)
	require.NoError(t, err)

	f := NewSMTPFilter(c, utils.NewTextProcessor(zap.NewNop()), whitelist.NewChecker(nil, nil), cfg, zap.NewNop())
	require.NoError(t, f.Start())
	t.Cleanup(func() { _ = f.Stop() })

	client, err := smtp.Dial(f.Addr())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Mail("friend@example.org", nil))
	require.NoError(t, client.Rcpt("you@example.org", nil))
	wc, err := client.Data()
	require.NoError(t, err)
	_, err = wc.Write([]byte("Subject: lunch\r\n\r\nSee you at noon.\r\n"))
	require.NoError(t, err)
	require.NoError(t, wc.Close())
	require.NoError(t, client.Quit())

	select {
	case got := <-backend.received:
		assert.Contains(t, got, "X-Spam-Status: false\r\n")
		assert.Contains(t, got, "X-Spam-Confidence: 0.1200\r\n")
		assert.Contains(t, got, "See you at noon.")
	case <-time.After(5 * time.Second):
		t.Fatal("relay never received the message")
	}
}
