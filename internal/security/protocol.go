package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultIterations = 100_000

	keyLength   = 32
	ivLength    = 12
	tagLength   = 16
	nonceLength = 16

	purposeEncryption = "aes"
	purposeSigning    = "hmac"

	// maxCachedKeys bounds the derived key cache; two keys per secret.
	maxCachedKeys = 4096
)

var applicationSalt = []byte("smschecker/device-channel/v1")

var (
	ErrCrypto           = errors.New("crypto failure")
	ErrMalformedPayload = fmt.Errorf("%w: malformed payload", ErrCrypto)
	ErrAuthentication   = fmt.Errorf("%w: authentication failed", ErrCrypto)
)

type keyRef struct {
	secretDigest [sha256.Size]byte
	purpose      string
}

// Protocol implements the device channel: AES-256-GCM payloads and
// HMAC-SHA256 signatures, both keyed from the device secret through PBKDF2.
//
// Derived keys are cached per secret. The cache holds at most maxCachedKeys
// entries and is dropped wholesale when full, so rotating secrets in a
// long-lived process cost a re-derivation rather than memory.
type Protocol struct {
	iterations int
	maxKeys    int

	mu   sync.RWMutex
	keys map[keyRef][]byte
}

func NewProtocol() *Protocol {
	return NewProtocolWithIterations(DefaultIterations)
}

func NewProtocolWithIterations(iterations int) *Protocol {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Protocol{
		iterations: iterations,
		maxKeys:    maxCachedKeys,
		keys:       make(map[keyRef][]byte),
	}
}

func (p *Protocol) deriveKey(secret, purpose string) []byte {
	ref := keyRef{secretDigest: sha256.Sum256([]byte(secret)), purpose: purpose}

	p.mu.RLock()
	key, ok := p.keys[ref]
	p.mu.RUnlock()
	if ok {
		return key
	}

	salt := make([]byte, 0, len(applicationSalt)+1+len(purpose))
	salt = append(salt, applicationSalt...)
	salt = append(salt, ':')
	salt = append(salt, purpose...)
	key = pbkdf2.Key([]byte(secret), salt, p.iterations, keyLength, sha256.New)

	p.mu.Lock()
	if len(p.keys) >= p.maxKeys {
		clear(p.keys)
	}
	p.keys[ref] = key
	p.mu.Unlock()
	return key
}

func (p *Protocol) aead(secret string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(p.deriveKey(secret, purposeEncryption))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return gcm, nil
}

// Encrypt returns base64(iv || ciphertext || tag).
func (p *Protocol) Encrypt(plaintext []byte, secret string) (string, error) {
	gcm, err := p.aead(secret)
	if err != nil {
		return "", err
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: read iv: %v", ErrCrypto, err)
	}
	sealed := gcm.Seal(iv, iv, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (p *Protocol) Decrypt(payload, secret string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrMalformedPayload
	}
	if len(raw) < ivLength+tagLength {
		return nil, ErrMalformedPayload
	}
	gcm, err := p.aead(secret)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, raw[:ivLength], raw[ivLength:], nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func (p *Protocol) Sign(data []byte, secret string) string {
	mac := hmac.New(sha256.New, p.deriveKey(secret, purposeSigning))
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (p *Protocol) Verify(data []byte, signature, secret string) bool {
	given, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, p.deriveKey(secret, purposeSigning))
	mac.Write(data)
	expected := mac.Sum(nil)
	if len(given) != len(expected) {
		return false
	}
	return hmac.Equal(given, expected)
}

// Nonce returns 16 random bytes, base64 encoded.
func (p *Protocol) Nonce() (string, error) {
	buf := make([]byte, nonceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: read nonce: %v", ErrCrypto, err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// SignatureInput is the byte string a request signature covers.
func SignatureInput(data, nonce, timestamp string) []byte {
	out := make([]byte, 0, len(data)+len(nonce)+len(timestamp))
	out = append(out, data...)
	out = append(out, nonce...)
	out = append(out, timestamp...)
	return out
}
