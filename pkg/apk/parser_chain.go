package apk

import (
	"fmt"
	"sort"
	"time"
)

// Chain tries parsers in priority order until one produces a report.
type Chain struct {
	parsers []Parser
	logger  Logger
}

// NewChain builds an empty chain. A nil logger silences chain diagnostics.
func NewChain(logger Logger) *Chain {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Chain{logger: logger}
}

// NewDefaultChain builds the standard chain: the native parser first, the
// androidbinary fallback behind it.
func NewDefaultChain(logger Logger) *Chain {
	c := NewChain(logger)
	c.Add(&NativeParser{})
	c.Add(&FallbackParser{})
	return c
}

// Add registers a parser, keeping the chain sorted by priority.
func (c *Chain) Add(p Parser) {
	c.parsers = append(c.parsers, p)
	sort.SliceStable(c.parsers, func(i, j int) bool {
		return c.parsers[i].Info().Priority < c.parsers[j].Info().Priority
	})
}

// Parsers returns the registered parsers in run order.
func (c *Chain) Parsers() []ParserInfo {
	infos := make([]ParserInfo, 0, len(c.parsers))
	for _, p := range c.parsers {
		infos = append(infos, p.Info())
	}
	return infos
}

// Parse runs the chain against one file. Earlier failures are carried in
// the result so a caller can see what the winning parser papered over.
func (c *Chain) Parse(path string) (*ParseResult, error) {
	if len(c.parsers) == 0 {
		return nil, fmt.Errorf("no parsers registered")
	}

	var lastErr error
	var failures []string

	for _, p := range c.parsers {
		info := p.Info()
		if !info.Available {
			c.logger.Debugf("skipping unavailable parser %s", info.Name)
			continue
		}
		if !p.CanParse(path) {
			c.logger.Debugf("parser %s does not handle %s", info.Name, path)
			continue
		}

		start := time.Now()
		report, err := p.Parse(path)
		elapsed := time.Since(start)
		if err != nil {
			c.logger.Warnf("parser %s failed on %s: %v", info.Name, path, err)
			failures = append(failures, fmt.Sprintf("%s: %v", info.Name, err))
			lastErr = err
			continue
		}

		c.logger.Infof("parsed %s with %s in %v", path, info.Name, elapsed)
		report.ParsedWith = info.Name
		return &ParseResult{
			Report:   report,
			Parser:   info.Name,
			Duration: elapsed,
			Errors:   failures,
		}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all parsers failed, last error: %w", lastErr)
	}
	return nil, fmt.Errorf("no parser handles %s", path)
}
