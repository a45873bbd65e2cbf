package capabilities

import "cjls/internal/lspserver/wire"

// FindDocumentLinks always returns an empty slice: cjls does not
// advertise a document-link provider (policy decision, spec §6), so the
// handler exists only to give the façade a reply to send rather than
// letting the request dangle.
func FindDocumentLinks() []wire.DocumentLink {
	return []wire.DocumentLink{}
}
