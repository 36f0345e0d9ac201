package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64PayloadPlain(t *testing.T) {
	data, err := DecodeBase64Payload("aGVsbG8=", "Attachment")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestDecodeBase64PayloadDataURL(t *testing.T) {
	data, err := DecodeBase64Payload("data:image/png;base64,aGVsbG8=", "Avatar")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestDecodeBase64PayloadErrors(t *testing.T) {
	_, err := DecodeBase64Payload("", "Attachment")
	require.Error(t, err)
	assert.Equal(t, "Attachment data missing.", err.Error())

	_, err = DecodeBase64Payload("!!!", "Avatar")
	require.Error(t, err)
	assert.Equal(t, "Invalid avatar encoding.", err.Error())

	_, err = DecodeBase64Payload("data:image/png;base64,", "Attachment")
	require.Error(t, err)
	assert.Equal(t, "Attachment payload empty.", err.Error())
}

func TestNormalizeAttachmentName(t *testing.T) {
	assert.Equal(t, "pic.jpg", NormalizeAttachmentName(" pic.jpg ", "upload.png"))
	assert.Equal(t, "pic.png", NormalizeAttachmentName("pic", "upload.png"))
	assert.Equal(t, "upload.png", NormalizeAttachmentName("", "upload.png"))
}

func TestIsAllowedImageName(t *testing.T) {
	assert.True(t, IsAllowedImageName("a.PNG"))
	assert.True(t, IsAllowedImageName("photo.webp"))
	assert.False(t, IsAllowedImageName("script.exe"))
	assert.False(t, IsAllowedImageName("noext"))
}
