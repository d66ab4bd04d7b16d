package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/integrail/chatbot-verify/pkg/verify"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func printedConfig(t *testing.T, args ...string) verify.Config {
	code, stdout, stderr := runCLI(append([]string{"config"}, args...)...)
	Expect(code).To(Equal(verify.ExitOK), stderr)

	cfg := verify.Config{}
	Expect(yaml.Unmarshal([]byte(stdout), &cfg)).To(Succeed())
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	RegisterTestingT(t)
	t.Setenv(verify.EnvURL, "")

	cfg := printedConfig(t)
	Expect(cfg.URL).To(Equal(verify.DefaultURL))
	Expect(cfg.Driver).To(Equal("playwright"))
	Expect(cfg.Screenshot).To(Equal("screenshots/verification.png"))
	Expect(cfg.WidgetTimeout).To(Equal(5 * time.Second))

	_, stdout, _ := runCLI("config", "--timeout", "2s")
	Expect(stdout).To(ContainSubstring("widgetTimeout: 5s\n"))
	Expect(stdout).To(ContainSubstring("timeout: 2s\n"))
}

func TestConfigPrecedence(t *testing.T) {
	RegisterTestingT(t)

	path := filepath.Join(t.TempDir(), "verify.yaml")
	Expect(os.WriteFile(path, []byte("url: http://file/\ndriver: rod\nquery: from file\n"), 0o644)).To(Succeed())

	t.Setenv(verify.EnvURL, "")
	cfg := printedConfig(t, "-c", path)
	Expect(cfg.URL).To(Equal("http://file/"))
	Expect(cfg.Driver).To(Equal("rod"))

	t.Setenv(verify.EnvURL, "http://env/")
	cfg = printedConfig(t, "-c", path)
	Expect(cfg.URL).To(Equal("http://env/"))

	cfg = printedConfig(t, "-c", path, "--url", "http://flag/", "--query", "from flag", "--headful", "--response-timeout", "9s")
	Expect(cfg.URL).To(Equal("http://flag/"))
	Expect(cfg.Query).To(Equal("from flag"))
	Expect(cfg.Driver).To(Equal("rod"))
	Expect(cfg.Browser.Headless).To(BeFalse())
	Expect(cfg.ResponseTimeout).To(Equal(9 * time.Second))
}

func TestConfigCookiesAndMaskedKey(t *testing.T) {
	RegisterTestingT(t)
	t.Setenv(verify.EnvBaasAPIKey, "")

	code, stdout, _ := runCLI("config", "-d", "baas", "--baas-url", "http://baas/", "--baas-key", "secret",
		"-C", "b=2", "-C", "a=1", "--cookie-domain", "example.com")
	Expect(code).To(Equal(verify.ExitOK))
	Expect(stdout).ToNot(ContainSubstring("secret"))

	cfg := verify.Config{}
	Expect(yaml.Unmarshal([]byte(stdout), &cfg)).To(Succeed())
	Expect(cfg.Baas.ApiKey).To(Equal("***"))
	Expect(cfg.Baas.Cookies).To(HaveLen(2))
	Expect(cfg.Baas.Cookies[0].Name).To(Equal("a"))
	Expect(cfg.Baas.Cookies[0].Domain).To(Equal("example.com"))
	Expect(cfg.Baas.Cookies[1].Value).To(Equal("2"))
}

func TestSetupErrors(t *testing.T) {
	RegisterTestingT(t)

	code, _, stderr := runCLI("--driver", "selenium")
	Expect(code).To(Equal(verify.ExitSetup))
	Expect(stderr).To(ContainSubstring(`unknown driver "selenium"`))

	code, _, stderr = runCLI("config", "-C", "broken")
	Expect(code).To(Equal(verify.ExitSetup))
	Expect(stderr).To(ContainSubstring("invalid --cookie"))

	code, _, _ = runCLI("--no-such-flag")
	Expect(code).To(Equal(verify.ExitSetup))

	code, _, stderr = runCLI("-c", filepath.Join(t.TempDir(), "missing.yaml"))
	Expect(code).To(Equal(verify.ExitSetup))
	Expect(stderr).To(ContainSubstring("failed to read config"))
}

func TestUnreachableServerIsNavigationFailure(t *testing.T) {
	RegisterTestingT(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).To(BeNil())
	addr := l.Addr().String()
	Expect(l.Close()).To(Succeed())

	code, stdout, stderr := runCLI("--url", "http://"+addr+"/index.html", "--wait-server", "1", "--log-level", "error")
	Expect(code).To(Equal(verify.ExitNavigation))
	Expect(stdout).To(BeEmpty())
	Expect(stderr).To(ContainSubstring("navigation failed"))
}

func TestVersion(t *testing.T) {
	RegisterTestingT(t)

	code, stdout, _ := runCLI("--version")
	Expect(code).To(Equal(verify.ExitOK))
	Expect(stdout).To(ContainSubstring("chatbot-verify version dev"))
}

func TestSummary(t *testing.T) {
	RegisterTestingT(t)

	var buf bytes.Buffer
	printSummary(&buf, &verify.Report{
		RunID:  "run-1",
		Driver: "rod",
		Steps: []verify.StepResult{
			{Index: 3, Name: "widget-visible", Status: verify.StatusFailed, Error: "timed out"},
		},
		FailureScreenshot: "out/failure.png",
	})
	Expect(buf.String()).To(ContainSubstring("FAILED"))
	Expect(buf.String()).To(ContainSubstring("step 4 (widget-visible): timed out"))
	Expect(buf.String()).To(ContainSubstring("failure.png"))
}
