package testutil

import (
	"os"
)

// TestFTPConfig is a minimal remotestore config for the ftp backend.
const TestFTPConfig = `backend: ftp
host: ftp.example.com
user: u
password: s3cret
dir: uploads
`

// WriteStringToTempFileWithExtension writes content to a new temp file whose
// name ends in extension. It returns the path and a cleanup function.
func WriteStringToTempFileWithExtension(content string, extension string) (string, func(), error) {
	return writeTemp("temp-*"+extension, content)
}

func writeTemp(pattern, content string) (string, func(), error) {
	tempFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, err
	}

	if _, err := tempFile.WriteString(content); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return "", nil, err
	}

	tempFile.Close()

	cleanup := func() {
		os.Remove(tempFile.Name())
	}

	return tempFile.Name(), cleanup, nil
}
