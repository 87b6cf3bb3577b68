//go:build noheif && !vips && !darwin

package converter

// No HEIC decode capability in this build; lookups for "heic" miss the
// registry and surface as UnsupportedFormatError.
func registerHEICCodec(reg map[string]DecodeFunc) {}
