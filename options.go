package docnorm

import "log/slog"

// Option configures a Docnorm instance.
type Option func(*Docnorm)

// WithLogger sets the logger used for debug diagnostics. By default all log
// output is discarded; conversion outcomes are reported through the returned
// Diagnostics instead.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Docnorm) {
		d.logger = logger
	}
}

// WithWordDecoder replaces the built-in DOCX-to-HTML decoder.
func WithWordDecoder(dec WordDecoder) Option {
	return func(d *Docnorm) {
		d.wordDecoder = dec
	}
}

// WithPresentationDecoder replaces the built-in PPTX slide decoder.
func WithPresentationDecoder(dec PresentationDecoder) Option {
	return func(d *Docnorm) {
		d.presDecoder = dec
	}
}

// WithPDFDecoder replaces the PDF-to-HTML decoder. The default shells out to
// mutool; TextPDFDecoder is an in-process alternative without images.
func WithPDFDecoder(dec PDFDecoder) Option {
	return func(d *Docnorm) {
		d.pdfDecoder = dec
	}
}
