package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/metadata"
)

// XmlDocPass attaches a function's recovered XML-documentation comment
// (resolved from the hosting tool's external doc-comment ID index, not
// from IL itself — methods carry no such metadata) as a leading Comment
// node, gated by pipeline.Settings.ShowXmlDocumentation.
type XmlDocPass struct {
	// Lookup resolves a method's doc-comment-ID ("M:Namespace.Type.Method")
	// to its XML documentation text, or "" if none is recorded. nil means
	// no documentation source is configured.
	Lookup func(docCommentID string) string

	Enabled bool
}

func (XmlDocPass) Name() string     { return "XmlDocAttachment" }
func (XmlDocPass) Idempotent() bool { return false }

func (p XmlDocPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !p.Enabled || p.Lookup == nil || fn.Method == nil {
		return 0, nil
	}
	text := p.Lookup(docCommentID(fn.Method.Handle, fn.Method.QualifiedName()))
	if text == "" {
		return 0, nil
	}
	comment := ilast.New(ilast.KindComment)
	comment.Text = text
	if err := ilast.AttachChild(fn.Body, comment, 0); err != nil {
		return 0, err
	}
	return 1, nil
}

// docCommentID builds the "M:" doc-comment-ID form the external XML-doc
// index is keyed by (ECMA-335's companion XML documentation format uses
// this member-ID scheme, not the metadata token).
func docCommentID(h metadata.Handle, qualifiedName string) string {
	return "M:" + qualifiedName
}
