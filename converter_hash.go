package anyconvert

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"hash/adler32"
	"hash/crc32"
	"hash/fnv"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// hashAlgorithms maps algorithm names (as accepted by file-hash) to constructors.
var hashAlgorithms = map[string]func() hash.Hash{
	"md5":         md5.New,
	"sha1":        sha1.New,
	"sha256":      sha256.New,
	"sha512":      sha512.New,
	"sha3-256":    sha3.New256,
	"blake2b-256": newBlake2b256,
	"crc32":       func() hash.Hash { return crc32.NewIEEE() },
	"adler32":     func() hash.Hash { return adler32.New() },
	"fnv1a-64":    func() hash.Hash { return fnv.New64a() },
}

func newBlake2b256() hash.Hash {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	return h
}

func digestHex(algorithm string, data []byte) string {
	h := hashAlgorithms[algorithm]()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func hashUnit(algorithm, name, description string) Unit {
	return NewTextUnit(Meta{
		ID:          algorithm,
		Name:        name,
		Category:    CategoryHash,
		Description: description,
		Placeholder: "hello world",
	}, pureFunc(func(s string) string {
		return digestHex(algorithm, []byte(s))
	}))
}

const bcryptMaxPassword = 72

func hashUnits() []Unit {
	return []Unit{
		hashUnit("md5", "MD5", "MD5 digest of the UTF-8 text (not for security use)."),
		hashUnit("sha1", "SHA-1", "SHA-1 digest of the UTF-8 text (not for security use)."),
		hashUnit("sha256", "SHA-256", "SHA-256 digest of the UTF-8 text."),
		hashUnit("sha512", "SHA-512", "SHA-512 digest of the UTF-8 text."),
		hashUnit("sha3-256", "SHA3-256", "SHA3-256 (Keccak, FIPS 202) digest of the UTF-8 text."),
		hashUnit("blake2b-256", "BLAKE2b-256", "BLAKE2b digest with a 256-bit output."),
		hashUnit("crc32", "CRC-32", "IEEE CRC-32 checksum as eight hex digits."),
		hashUnit("adler32", "Adler-32", "Adler-32 checksum as eight hex digits."),
		hashUnit("fnv1a-64", "FNV-1a 64", "64-bit FNV-1a hash as sixteen hex digits."),
		NewTextUnit(Meta{
			ID:          "bcrypt-hash",
			Name:        "bcrypt Hash",
			Category:    CategoryHash,
			Description: "Hash a password with bcrypt (cost 10). A random salt makes every output different.",
			Placeholder: "correct horse battery staple",
		}, stringFunc(func(s string) (string, error) {
			if s == "" {
				return "", Invalidf("enter a password")
			}
			if len(s) > bcryptMaxPassword {
				return "", Invalidf("bcrypt accepts at most %d bytes", bcryptMaxPassword)
			}
			out, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
			if err != nil {
				return "", err
			}
			return string(out), nil
		})),
		NewTextUnit(Meta{
			ID:          "bcrypt-verify",
			Name:        "bcrypt Verify",
			Category:    CategoryHash,
			Description: "Check a password against a bcrypt hash. Put the hash on the first line and the password on the second.",
			Placeholder: "$2a$10$...\npassword",
		}, stringFunc(func(s string) (string, error) {
			hashLine, password, ok := strings.Cut(s, "\n")
			if !ok {
				return "", Invalidf("expected the hash on line 1 and the password on line 2")
			}
			err := bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(hashLine)), []byte(strings.TrimRight(password, "\r\n")))
			switch {
			case err == nil:
				return "Match", nil
			case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
				return "No match", nil
			default:
				return "", invalidWrap("invalid bcrypt hash", err)
			}
		})),
		NewFileUnit(Meta{
			ID:              "file-hash",
			Name:            "File Hash",
			Category:        CategoryHash,
			Description:     "Digest of a file. The optional text picks the algorithm (default sha256).",
			AcceptTypes:     "*",
			HasTextInput:    true,
			TextPlaceholder: "sha256",
		}, func(_ context.Context, f File, aux string) (Result, error) {
			algorithm := strings.ToLower(strings.TrimSpace(aux))
			if algorithm == "" {
				algorithm = "sha256"
			}
			if _, ok := hashAlgorithms[algorithm]; !ok {
				return nil, Invalidf("unknown algorithm %q, use one of %s", algorithm, strings.Join(hashAlgorithmNames(), ", "))
			}
			return Text(digestHex(algorithm, f.Data)), nil
		}),
		NewMultiFileUnit(Meta{
			ID:          "file-checksums",
			Name:        "Checksums (sha256sum)",
			Category:    CategoryHash,
			Description: "SHA-256 of every file in sha256sum format.",
			AcceptTypes: "*",
		}, func(_ context.Context, files []File, _ string) (Result, error) {
			var b strings.Builder
			for _, f := range files {
				fmt.Fprintf(&b, "%s  %s\n", digestHex("sha256", f.Data), f.Name)
			}
			return Text(strings.TrimSuffix(b.String(), "\n")), nil
		}),
	}
}

func hashAlgorithmNames() []string {
	names := make([]string, 0, len(hashAlgorithms))
	for name := range hashAlgorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
