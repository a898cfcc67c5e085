package validation

import (
	"errors"
	"fmt"
)

const maxAvatarBytes = 5 << 20 // 5 MiB

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateAvatar checks an avatar upload's declared content type and size.
func ValidateAvatar(contentType string, size int64) error {
	if !allowedAvatarTypes[contentType] {
		return fmt.Errorf("unsupported image type %q (use jpeg, png, gif, or webp)", contentType)
	}

	if size <= 0 {
		return errors.New("uploaded file is empty")
	}

	if size > maxAvatarBytes {
		return errors.New("image is too large (max 5 MB)")
	}

	return nil
}
