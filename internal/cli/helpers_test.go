package cli

import "os"

func writeString(path, s string) error { return os.WriteFile(path, []byte(s), 0o644) }

func readString(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}
