//go:build !portaudio

package capture

func openDefault(Config) (Stream, error) {
	return nil, ErrUnavailable
}
