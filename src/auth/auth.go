package auth

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
)

// Verifier validates user credentials. It is built once from a plaintext
// username->password map and keeps only SHA-256 digests. It holds no mutable
// state after construction, so it is safe for concurrent use.
type Verifier struct {
	hashed map[string]string
}

// NewVerifier hashes every password in the supplied map and returns the
// resulting Verifier.
func NewVerifier(users map[string]string) *Verifier {
	hashed := make(map[string]string, len(users))
	for username, password := range users {
		hashed[username] = hashPassword(password)
	}
	return &Verifier{hashed: hashed}
}

// Verify reports whether the username exists and the password matches.
func (v *Verifier) Verify(username, password string) bool {
	digest, ok := v.hashed[username]
	if !ok {
		return false
	}
	return digest == hashPassword(password)
}

func hashPassword(password string) string {
	digest := sha256.Sum256([]byte(password))
	return hex.EncodeToString(digest[:])
}

// LoadUsers reads a username->password map from a JSON file.
func LoadUsers(path string) (map[string]string, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var users map[string]string
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&users); err != nil {
		return nil, err
	}

	return users, nil
}
