package format

// ConvertOptions tunes conversions that have more than one sensible output.
type ConvertOptions struct {
	// NewlineToBR turns newlines into <br/> for TEXT->HTML.
	NewlineToBR bool
}

// Convert maps (title, body) from the in format to the out format.
func Convert(title, body string, in, out Format, opt ConvertOptions) (string, string) {
	if in == out {
		return title, body
	}
	return convertTitle(title, in, out), convertBody(body, in, out, opt)
}

func convertBody(body string, in, out Format, opt ConvertOptions) string {
	switch out {
	case HTML:
		if in == Markdown {
			return MarkdownToHTML(body)
		}
		return TextToHTML(body, opt.NewlineToBR)
	case Text:
		if in == Markdown {
			return HTMLToText(MarkdownToHTML(body))
		}
		return HTMLToText(body)
	case Markdown:
		if in == HTML {
			body = HTMLToText(body)
		}
		return EscapeMarkdownV2(body)
	}
	return body
}

// Titles are single-line plain text in practice, so they are never rendered;
// they are only escaped or stripped for the target format.
func convertTitle(title string, in, out Format) string {
	if title == "" {
		return ""
	}
	switch out {
	case HTML:
		return TextToHTML(title, false)
	case Text:
		if in == HTML {
			return HTMLToText(title)
		}
		return title
	case Markdown:
		if in == HTML {
			title = HTMLToText(title)
		}
		return EscapeMarkdownV2(title)
	}
	return title
}

// Prepare runs the full per-target pipeline: conversion, then the overflow
// policy.
func Prepare(title, body string, in, out Format, lim Limits, opt ConvertOptions) ([]Chunk, error) {
	if lim.BodyMaxLen <= 0 {
		return nil, &ConversionError{BodyMaxLen: lim.BodyMaxLen, Reason: "body limit must be positive"}
	}
	t, b := Convert(title, body, in, out, opt)
	return Apply(t, b, lim)
}
