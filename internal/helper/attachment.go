package helper

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64Payload decodes a base64 blob that may carry a data-URL
// prefix ("data:image/png;base64,...."). Empty and undecodable
// payloads are rejected before any storage work happens. The label
// ("Attachment", "Avatar") prefixes the user-facing error strings.
func DecodeBase64Payload(raw string, label string) ([]byte, error) {
	if raw == "" {
		return nil, NewBadRequestError(label + " data missing.")
	}

	if idx := strings.IndexByte(raw, ','); idx >= 0 {
		raw = raw[idx+1:]
	}

	binary, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, NewBadRequestError("Invalid " + strings.ToLower(label) + " encoding.")
	}
	if len(binary) == 0 {
		return nil, NewBadRequestError(label + " payload empty.")
	}

	return binary, nil
}

// NormalizeAttachmentName guarantees a usable filename for a client
// supplied attachment name, defaulting the extension to png.
func NormalizeAttachmentName(name string, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if !strings.Contains(name, ".") {
		name += ".png"
	}
	return name
}
