package build

// Version is overridden at link time: -ldflags "-X github.com/integrail/chatbot-verify/internal/build.Version=v1.2.3"
var Version = "dev"
