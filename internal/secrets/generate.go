package secrets

import (
	"crypto/aes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Prompter supplies the interactive behaviors the generation methods need:
// asking for a value, asking for a password, and asking whether to
// override an already-present secret. A headless CLI invocation supplies
// a Prompter that fails fast instead of blocking, per the fail-fast
// resolution for FromFile/Ask* in a non-interactive terminal.
type Prompter interface {
	Ask(prompt string) (string, error)
	AskPassword(prompt string) (string, error)
	ShouldOverride(component, secret string) bool
}

type resultKind int

const (
	resultValue resultKind = iota
	resultKeyPair
	resultRef
)

type generationResult struct {
	kind         resultKind
	value        string
	privateKey   string
	publicKey    string
	refComponent string
	refSecret    string
}

func generate(m Method, prompter Prompter) (generationResult, error) {
	switch m.Kind {
	case KindStatic:
		return generationResult{kind: resultValue, value: m.Value}, nil

	case KindBase64StaticValue:
		return generationResult{kind: resultValue, value: base64.StdEncoding.EncodeToString([]byte(m.Value))}, nil

	case KindAsk:
		v, err := prompter.Ask(m.Prompt)
		if err != nil {
			return generationResult{}, err
		}
		return generationResult{kind: resultValue, value: v}, nil

	case KindAskWithDefault:
		v, err := prompter.Ask(m.Prompt)
		if err != nil {
			return generationResult{}, err
		}
		if v == "" {
			v = m.Default
		}
		return generationResult{kind: resultValue, value: v}, nil

	case KindAskPassword:
		v, err := prompter.AskPassword(m.Prompt)
		if err != nil {
			return generationResult{}, err
		}
		return generationResult{kind: resultValue, value: v}, nil

	case KindRandomString, KindRandomAlphanumeric:
		return generationResult{kind: resultValue, value: randomAlphanumeric(m.Length)}, nil

	case KindRandomHex:
		b, err := randomBytes(m.Length)
		if err != nil {
			return generationResult{}, err
		}
		return generationResult{kind: resultValue, value: hex.EncodeToString(b)}, nil

	case KindRandomBase64:
		b, err := randomBytes(m.Length)
		if err != nil {
			return generationResult{}, err
		}
		return generationResult{kind: resultValue, value: base64.StdEncoding.EncodeToString(b)}, nil

	case KindRandomUUID:
		return generationResult{kind: resultValue, value: uuid.NewString()}, nil

	case KindTimestamp:
		return generationResult{kind: resultValue, value: time.Now().UTC().Format(time.RFC3339)}, nil

	case KindFromFile:
		return generateFromFile(m, prompter)

	case KindRef:
		component, secret := splitRef(m.RefPath)
		return generationResult{kind: resultRef, refComponent: component, refSecret: secret}, nil

	case KindRSAKeyPair:
		return generateRSAKeyPair(m.Bits, m.Base64)

	case KindECDSAKeyPair:
		return generateECDSAKeyPair(m.Curve, m.Base64)

	case KindEd25519KeyPair:
		return generateEd25519KeyPair(m.Base64)

	case KindAESKey:
		if err := aesKeySize(m.Bits); err != nil {
			return generationResult{}, err
		}
		return generateSymmetricKey(m.Bits, m.Base64)

	case KindHMACKey:
		key, err := randomBytes(m.Bits / 8)
		if err != nil {
			return generationResult{}, err
		}
		hmacKey(key) // confirms key is usable as HMAC key material
		return generationResult{kind: resultValue, value: encodeKey(key, m.Base64)}, nil

	default:
		return generationResult{}, fmt.Errorf("unknown generation method %q", m.Kind)
	}
}

func generateFromFile(m Method, prompter Prompter) (generationResult, error) {
	path := m.DefaultPath
	if m.Ask {
		v, err := prompter.Ask(m.Prompt)
		if err != nil {
			return generationResult{}, err
		}
		if v != "" {
			path = v
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return generationResult{}, fmt.Errorf("from_file: failed to read %s: %w", path, err)
	}
	if m.Base64 {
		return generationResult{kind: resultValue, value: base64.StdEncoding.EncodeToString(raw)}, nil
	}
	return generationResult{kind: resultValue, value: string(raw)}, nil
}

const alphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomAlphanumeric(n int) string {
	out := make([]byte, n)
	b, err := randomBytes(n)
	if err != nil {
		// crypto/rand.Read failing is an environment-level fault; fall
		// back to the zeroth character rather than propagating a panic
		// through a pure string-generation path.
		for i := range out {
			out[i] = alphanumericAlphabet[0]
		}
		return string(out)
	}
	for i, c := range b {
		out[i] = alphanumericAlphabet[int(c)%len(alphanumericAlphabet)]
	}
	return string(out)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

func encodeKey(raw []byte, asBase64 bool) string {
	if asBase64 {
		return base64.StdEncoding.EncodeToString(raw)
	}
	return hex.EncodeToString(raw)
}

func generateRSAKeyPair(bits int, asBase64 bool) (generationResult, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return generationResult{}, fmt.Errorf("rsa keypair: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return generationResult{}, fmt.Errorf("rsa keypair: marshal private: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return generationResult{}, fmt.Errorf("rsa keypair: marshal public: %w", err)
	}
	return keyPairResult(privDER, pubDER, "RSA PRIVATE KEY", "PUBLIC KEY", asBase64), nil
}

func generateECDSAKeyPair(curveName string, asBase64 bool) (generationResult, error) {
	var curve elliptic.Curve
	switch curveName {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return generationResult{}, fmt.Errorf("ecdsa keypair: unsupported curve %q", curveName)
	}

	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return generationResult{}, fmt.Errorf("ecdsa keypair: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return generationResult{}, fmt.Errorf("ecdsa keypair: marshal private: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return generationResult{}, fmt.Errorf("ecdsa keypair: marshal public: %w", err)
	}
	return keyPairResult(privDER, pubDER, "EC PRIVATE KEY", "PUBLIC KEY", asBase64), nil
}

func generateEd25519KeyPair(asBase64 bool) (generationResult, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return generationResult{}, fmt.Errorf("ed25519 keypair: %w", err)
	}
	if asBase64 {
		return generationResult{
			kind:       resultKeyPair,
			privateKey: base64.StdEncoding.EncodeToString(priv),
			publicKey:  base64.StdEncoding.EncodeToString(pub),
		}, nil
	}
	return generationResult{
		kind:       resultKeyPair,
		privateKey: hex.EncodeToString(priv),
		publicKey:  hex.EncodeToString(pub),
	}, nil
}

func keyPairResult(privDER, pubDER []byte, privType, pubType string, asBase64 bool) generationResult {
	if asBase64 {
		return generationResult{
			kind:       resultKeyPair,
			privateKey: base64.StdEncoding.EncodeToString(privDER),
			publicKey:  base64.StdEncoding.EncodeToString(pubDER),
		}
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: privType, Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: pubType, Bytes: pubDER})
	return generationResult{kind: resultKeyPair, privateKey: string(privPEM), publicKey: string(pubPEM)}
}

func generateSymmetricKey(bits int, asBase64 bool) (generationResult, error) {
	key, err := randomBytes(bits / 8)
	if err != nil {
		return generationResult{}, err
	}
	return generationResult{kind: resultValue, value: encodeKey(key, asBase64)}, nil
}

// aesKeySize validates bits is a size crypto/aes accepts, used by callers
// that need to confirm an AESKey definition before generation rather than
// after.
func aesKeySize(bits int) error {
	switch bits / 8 {
	case 16, 24, 32:
		_, err := aes.NewCipher(make([]byte, bits/8))
		return err
	default:
		return fmt.Errorf("aes key: unsupported size %d bits", bits)
	}
}

// hmacKey constructs an HMAC to confirm key material of this length is
// usable, mirroring the crypto/hmac contract HMACKey definitions rely on.
func hmacKey(key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	return mac.Sum(nil)
}
