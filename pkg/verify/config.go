package verify

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/integrail/chatbot-verify/pkg/browser"
	"github.com/integrail/chatbot-verify/pkg/browser/drivers"
	"github.com/integrail/chatbot-verify/pkg/client"
)

const (
	DefaultURL        = "http://localhost:8000/index.html"
	DefaultQuery      = "how to test on mobile?"
	DefaultScreenshot = "screenshots/verification.png"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvURL        = "CHATBOT_VERIFY_URL"
	EnvBaasURL    = "BAAS_URL"
	EnvBaasAPIKey = "BAAS_API_KEY"
)

type Config struct {
	URL               string          `json:"url" yaml:"url"`
	Driver            string          `json:"driver" yaml:"driver"`
	Browser           browser.Options `json:"browser" yaml:"browser"`
	Query             string          `json:"query" yaml:"query"`
	Screenshot        string          `json:"screenshot" yaml:"screenshot"`
	FailureScreenshot string          `json:"failureScreenshot,omitempty" yaml:"failureScreenshot,omitempty"`

	// Timeout applies to every expectation without an explicit one.
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	WidgetTimeout   time.Duration `json:"widgetTimeout" yaml:"widgetTimeout"`
	ResponseTimeout time.Duration `json:"responseTimeout" yaml:"responseTimeout"`
	// ResponseIndex picks the bot message holding the answer. Index 0 is the greeting.
	ResponseIndex int `json:"responseIndex" yaml:"responseIndex"`

	Selectors Selectors    `json:"selectors" yaml:"selectors"`
	Expect    Expectations `json:"expect" yaml:"expect"`

	Report      string `json:"report,omitempty" yaml:"report,omitempty"`
	Trace       string `json:"trace,omitempty" yaml:"trace,omitempty"`
	Pushgateway string `json:"pushgateway,omitempty" yaml:"pushgateway,omitempty"`
	WaitServer  int    `json:"waitServer,omitempty" yaml:"waitServer,omitempty"`
	LogLevel    string `json:"logLevel" yaml:"logLevel"`
	TUI         bool   `json:"tui,omitempty" yaml:"tui,omitempty"`

	Baas client.Config `json:"baas" yaml:"baas"`
}

type Selectors struct {
	Toggle     string `json:"toggle" yaml:"toggle"`
	Window     string `json:"window" yaml:"window"`
	Input      string `json:"input" yaml:"input"`
	Send       string `json:"send" yaml:"send"`
	BotMessage string `json:"botMessage" yaml:"botMessage"`
	Title      string `json:"title" yaml:"title"`
	Snippet    string `json:"snippet" yaml:"snippet"`
	Link       string `json:"link" yaml:"link"`
}

type Expectations struct {
	Title            string `json:"title" yaml:"title"`
	TopicAttribute   string `json:"topicAttribute" yaml:"topicAttribute"`
	TopicID          string `json:"topicID" yaml:"topicID"`
	SectionAttribute string `json:"sectionAttribute" yaml:"sectionAttribute"`
}

func DefaultConfig() Config {
	return Config{
		URL:             DefaultURL,
		Driver:          drivers.Default,
		Browser:         browser.DefaultOptions(),
		Query:           DefaultQuery,
		Screenshot:      DefaultScreenshot,
		Timeout:         browser.DefaultTimeout,
		WidgetTimeout:   5 * time.Second,
		ResponseTimeout: 5 * time.Second,
		ResponseIndex:   1,
		LogLevel:        "info",
		Selectors: Selectors{
			Toggle:     "#chatbot-toggle",
			Window:     "#chatbot-window",
			Input:      "#chatbot-input",
			Send:       "#chatbot-send",
			BotMessage: ".chatbot-message.bot",
			Title:      "strong",
			Snippet:    ".search-snippet.content",
			Link:       "a.chatbot-link",
		},
		Expect: Expectations{
			Title:            "Web & Mobile Manual Testing",
			TopicAttribute:   "data-topic-id",
			TopicID:          "web-mobile-manual-testing",
			SectionAttribute: "data-section-index",
		},
		Baas: client.Config{
			Timeout:        "300s",
			MessageTimeout: "60s",
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "failed to parse config %s", path)
	}
	return nil
}

// MarshalYAML writes durations in time.ParseDuration form ("5s"), which is
// also what LoadFile reads back.
func (c Config) MarshalYAML() (any, error) {
	type plain Config
	var node yaml.Node
	if err := node.Encode(plain(c)); err != nil {
		return nil, err
	}
	for path, d := range map[string]time.Duration{
		"timeout":                   c.Timeout,
		"widgetTimeout":             c.WidgetTimeout,
		"responseTimeout":           c.ResponseTimeout,
		"browser.navigationTimeout": c.Browser.NavigationTimeout,
	} {
		if v := mappingValue(&node, strings.Split(path, ".")...); v != nil {
			v.Tag = "!!str"
			v.Value = d.String()
		}
	}
	return &node, nil
}

// mappingValue walks nested mapping keys and returns the value node, or nil.
func mappingValue(node *yaml.Node, keys ...string) *yaml.Node {
	for _, key := range keys {
		if node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}

// ApplyEnv overlays environment values; lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvURL); ok && v != "" {
		c.URL = v
	}
	if v, ok := lookup(EnvBaasURL); ok && v != "" {
		c.Baas.Url = v
	}
	if v, ok := lookup(EnvBaasAPIKey); ok && v != "" {
		c.Baas.ApiKey = v
	}
}

func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.URL) == "" {
		add("url must not be empty")
	}
	if !drivers.Known(c.Driver) {
		add("unknown driver %q (expected one of %s)", c.Driver, strings.Join(drivers.Names, ", "))
	}
	if c.Driver == "baas" && c.Baas.Url == "" {
		add("baas driver requires baas.url (or %s)", EnvBaasURL)
	}
	switch c.Browser.Browser {
	case "chromium", "firefox", "webkit":
	default:
		add("unknown browser %q", c.Browser.Browser)
	}
	if c.Browser.Browser != "chromium" && c.Driver != drivers.Default {
		add("browser %q is only supported by the %s driver", c.Browser.Browser, drivers.Default)
	}
	if strings.TrimSpace(c.Screenshot) == "" {
		add("screenshot path must not be empty")
	}
	if strings.TrimSpace(c.Query) == "" {
		add("query must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"timeout":                   c.Timeout,
		"widgetTimeout":             c.WidgetTimeout,
		"responseTimeout":           c.ResponseTimeout,
		"browser.navigationTimeout": c.Browser.NavigationTimeout,
	} {
		if d <= 0 {
			add("%s must be positive, got %s", name, d)
		}
	}
	if c.ResponseIndex < 0 {
		add("responseIndex must not be negative, got %d", c.ResponseIndex)
	}
	if c.WaitServer < 0 {
		add("waitServer must not be negative, got %d", c.WaitServer)
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		add("browser viewport must be positive, got %dx%d", c.Browser.Width, c.Browser.Height)
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return errors.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
