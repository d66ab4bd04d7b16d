//go:build tools

//go:generate go build -o ./bin/mockery github.com/vektra/mockery/v2
//go:generate go build -o ./bin/gofumpt mvdan.cc/gofumpt
//go:generate go build -o ./bin/golangci-lint github.com/golangci/golangci-lint/cmd/golangci-lint
//go:generate go build -o ./bin/playwright github.com/playwright-community/playwright-go/cmd/playwright

// this file pins the tools used to generate mocks, lint, format and install browsers

package main

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint" // nolint
	_ "github.com/playwright-community/playwright-go/cmd/playwright"
	_ "github.com/vektra/mockery/v2"
	_ "mvdan.cc/gofumpt"
)
