package browsertest

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/integrail/chatbot-verify/pkg/browser"
)

// Conformance drives d through the chatbot page and checks every Session
// operation, including the failure classification. It skips when d cannot
// start a browser on this machine.
func Conformance(t *testing.T, d browser.Driver) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	g := gomega.NewWithT(t)

	srv := NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := d.Open(ctx)
	if err != nil {
		t.Skipf("%s browser not available: %v", d.Name(), err)
	}
	defer func() {
		g.Expect(s.Close()).To(gomega.Succeed())
	}()

	response := browser.Query(".chatbot-message.bot").Nth(1)
	link := response.Locator("a.chatbot-link")

	g.Expect(s.Goto(ctx, IndexURL(srv))).To(gomega.Succeed())
	g.Expect(s.ExpectVisible(ctx, browser.Query("#chatbot-toggle"), 0)).To(gomega.Succeed())
	g.Expect(s.Click(ctx, browser.Query("#chatbot-toggle"))).To(gomega.Succeed())
	g.Expect(s.ExpectVisible(ctx, browser.Query("#chatbot-window"), 5*time.Second)).To(gomega.Succeed())
	g.Expect(s.ExpectEditable(ctx, browser.Query("#chatbot-input"), 0)).To(gomega.Succeed())
	g.Expect(s.Fill(ctx, browser.Query("#chatbot-input"), "how to test on mobile?")).To(gomega.Succeed())
	g.Expect(s.Click(ctx, browser.Query("#chatbot-send"))).To(gomega.Succeed())
	g.Expect(s.ExpectVisible(ctx, response, 5*time.Second)).To(gomega.Succeed())
	g.Expect(s.ExpectText(ctx, response.Locator("strong"), "Web & Mobile Manual Testing", 0)).To(gomega.Succeed())
	g.Expect(s.ExpectVisible(ctx, response.Locator(".search-snippet.content"), 0)).To(gomega.Succeed())
	g.Expect(s.ExpectVisible(ctx, link, 0)).To(gomega.Succeed())
	topic := "web-mobile-manual-testing"
	g.Expect(s.ExpectAttribute(ctx, link, "data-topic-id", &topic, 0)).To(gomega.Succeed())
	g.Expect(s.ExpectAttribute(ctx, link, "data-section-index", nil, 0)).To(gomega.Succeed())

	text, err := s.Text(ctx, response.Locator("strong"))
	g.Expect(err).To(gomega.BeNil())
	g.Expect(text).To(gomega.Equal("Web & Mobile Manual Testing"))

	wrong := "mobile-testing"
	err = s.ExpectAttribute(ctx, link, "data-topic-id", &wrong, 300*time.Millisecond)
	g.Expect(errors.Is(err, browser.ErrAssertion)).To(gomega.BeTrue(), "got %v", err)

	err = s.ExpectVisible(ctx, browser.Query(".chatbot-message.bot").Nth(5), 300*time.Millisecond)
	g.Expect(errors.Is(err, browser.ErrAssertion)).To(gomega.BeTrue(), "got %v", err)

	// greeting and answer both match, and resolution is strict
	err = s.ExpectVisible(ctx, browser.Query(".chatbot-message.bot"), 300*time.Millisecond)
	g.Expect(errors.Is(err, browser.ErrAssertion)).To(gomega.BeTrue(), "got %v", err)
	_, err = s.Text(ctx, browser.Query(".chatbot-message.bot").Locator("strong, p"))
	g.Expect(err).To(gomega.HaveOccurred())

	shot := filepath.Join(t.TempDir(), "nested", "verification.png")
	g.Expect(s.Screenshot(ctx, shot, true)).To(gomega.Succeed())
	info, err := os.Stat(shot)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(info.Size()).To(gomega.BeNumerically(">", 0))

	err = s.Goto(ctx, "http://"+unusedAddr(t)+"/index.html")
	g.Expect(errors.Is(err, browser.ErrNavigation)).To(gomega.BeTrue(), "got %v", err)
}

// unusedAddr returns a loopback address nothing listens on.
func unusedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}
