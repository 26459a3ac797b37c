// Package javasrc turns Java source files into tree.Units using the
// tree-sitter Java grammar.
package javasrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"fortio.org/safecast"
	"github.com/hashicorp/go-hclog"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"lintel/internal/source"
	"lintel/internal/tree"
)

// DefaultMaxFileSize is the largest file Parse accepts (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

var (
	// ErrParseFailed wraps every syntax error; the message carries the first error position.
	ErrParseFailed = errors.New("parse failed")
	// ErrEmptySource is returned for files with nothing but whitespace.
	ErrEmptySource = errors.New("empty source")
	// ErrFileTooLarge is returned for files above the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

type Option func(*Parser)

func WithLogger(log hclog.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

func WithMaxFileSize(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxFileSize = n
		}
	}
}

// Parser implements tree.Parser. Every Parse call gets its own tree-sitter
// parser, so one Parser may serve all workers.
type Parser struct {
	log         hclog.Logger
	maxFileSize int
}

var _ tree.Parser = (*Parser)(nil)

func NewParser(opts ...Option) *Parser {
	p := &Parser{log: hclog.NewNullLogger(), maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts file into a validated Unit.
func (p *Parser) Parse(ctx context.Context, file *source.File) (*tree.Unit, error) {
	start := time.Now()
	u, err := p.parse(ctx, file)
	recordParse(ctx, time.Since(start), len(file.Content), err)
	if err != nil {
		p.log.Debug("parse failed", "path", file.Path, "error", err)
		return nil, err
	}
	p.log.Trace("parsed", "path", file.Path, "nodes", u.Len(), "duration", time.Since(start))
	return u, nil
}

func (p *Parser) parse(ctx context.Context, file *source.File) (*tree.Unit, error) {
	if len(bytes.TrimSpace(file.Content)) == 0 {
		return nil, fmt.Errorf("%s: %w", file.Path, ErrEmptySource)
	}
	if _, err := safecast.Conv[uint32](len(file.Content)); err != nil || len(file.Content) > p.maxFileSize {
		return nil, fmt.Errorf("%s: %w (%d bytes)", file.Path, ErrFileTooLarge, len(file.Content))
	}

	ps := sitter.NewParser()
	defer ps.Close()
	ps.SetLanguage(java.GetLanguage())

	cst, err := ps.ParseCtx(ctx, nil, file.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	defer cst.Close()

	root := cst.RootNode()
	if root.HasError() {
		return nil, syntaxError(file, root)
	}

	c := newConverter(file)
	c.collectComments(root)
	u, err := c.b.Finish(c.unit(root))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	return u, nil
}

// SyntaxError is the first syntax error of a file. It wraps ErrParseFailed.
type SyntaxError struct {
	Path   string
	Offset uint32
	Pos    source.LineCol
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s:%d:%d: %s", ErrParseFailed, e.Path, e.Pos.Line, e.Pos.Col, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrParseFailed }

// syntaxError describes the first ERROR or MISSING node in pre-order.
func syntaxError(file *source.File, root *sitter.Node) error {
	bad := firstError(root)
	if bad == nil {
		return fmt.Errorf("%w: %s", ErrParseFailed, file.Path)
	}
	msg := "syntax error"
	if bad.IsMissing() {
		msg = "missing " + bad.Type()
	} else if end := bad.EndByte(); end > bad.StartByte() && end-bad.StartByte() <= 40 {
		msg = fmt.Sprintf("unexpected %q", bad.Content(file.Content))
	}
	return &SyntaxError{
		Path:   file.Path,
		Offset: bad.StartByte(),
		Pos:    file.Position(bad.StartByte()),
		Msg:    msg,
	}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}
