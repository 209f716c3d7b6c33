package suit

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/sha3"
)

// DigestAlgorithm identifies a COSE algorithm used as a SUIT digest
// algorithm. Values match the COSE algorithm registry identifiers used by
// the manifest format (RFC 9054).
type DigestAlgorithm int64

const (
	AlgoSha256   DigestAlgorithm = -16
	AlgoShake128 DigestAlgorithm = -18
	AlgoSha384   DigestAlgorithm = -43
	AlgoSha512   DigestAlgorithm = -44
	AlgoShake256 DigestAlgorithm = -45
)

func (a DigestAlgorithm) String() string {
	switch a {
	case AlgoSha256:
		return "sha-256"
	case AlgoShake128:
		return "shake128"
	case AlgoSha384:
		return "sha-384"
	case AlgoSha512:
		return "sha-512"
	case AlgoShake256:
		return "shake256"
	default:
		return "unknown"
	}
}

// shakeOutputLen is the fixed output length this module uses for the two
// extendable-output functions. SHAKE is an XOF and could, in principle,
// produce any length; RFC 9054 pins SHAKE128 to a 256-bit and SHAKE256 to a
// 512-bit digest when used as a SUIT digest algorithm, matching the
// corresponding SHA-2 variant's size.
const (
	shake128OutputLen = 32
	shake256OutputLen = 64
)

// Digest is a borrowed (algo, value) pair decoded from a manifest's
// suit-digest structure: a two-element array of [algorithm-id, digest-bytes].
type Digest struct {
	Algo  DigestAlgorithm
	Value []byte
}

// DecodeDigest decodes a suit-digest array from c.
func DecodeDigest(c *Cursor) (Digest, error) {
	n, err := c.ArrayHeader()
	if err != nil {
		return Digest{}, err
	}
	if n != 2 {
		return Digest{}, errAt(KindUnexpectedCbor, c.Position())
	}
	algoVal, err := c.Int64()
	if err != nil {
		return Digest{}, err
	}
	algo := DigestAlgorithm(algoVal)
	switch algo {
	case AlgoSha256, AlgoShake128, AlgoSha384, AlgoSha512, AlgoShake256:
	default:
		return Digest{}, errCode(KindUnsupportedDigestAlgo, algoVal)
	}
	value, err := c.Bytes()
	if err != nil {
		return Digest{}, err
	}
	return Digest{Algo: algo, Value: value}, nil
}

// Hasher streams bytes into a running digest computation for one of the
// five algorithms Digest supports, and compares the finalized result
// against an expected Digest.
type Hasher struct {
	algo DigestAlgorithm
	h    hash.Hash
	xof  sha3.ShakeHash
}

// NewHasher constructs a Hasher for algo.
func NewHasher(algo DigestAlgorithm) (*Hasher, error) {
	switch algo {
	case AlgoSha256:
		return &Hasher{algo: algo, h: sha256.New()}, nil
	case AlgoSha384:
		return &Hasher{algo: algo, h: sha512.New384()}, nil
	case AlgoSha512:
		return &Hasher{algo: algo, h: sha512.New()}, nil
	case AlgoShake128:
		return &Hasher{algo: algo, xof: sha3.NewShake128()}, nil
	case AlgoShake256:
		return &Hasher{algo: algo, xof: sha3.NewShake256()}, nil
	default:
		return nil, errCode(KindUnsupportedDigestAlgo, int64(algo))
	}
}

// Write feeds more of the component image into the running digest.
func (h *Hasher) Write(p []byte) {
	if h.h != nil {
		h.h.Write(p)
		return
	}
	h.xof.Write(p)
}

// MatchDigest finalizes the running hash and reports whether it equals want.
// A digest whose declared algorithm doesn't match the hasher in use can
// never be a legitimate match regardless of byte content, so that case
// fails immediately with ConditionMatchFail rather than comparing bytes.
func (h *Hasher) MatchDigest(want Digest) (bool, error) {
	if want.Algo != h.algo {
		return false, errAt(KindConditionMatchFail, 0)
	}
	var got []byte
	switch {
	case h.h != nil:
		got = h.h.Sum(nil)
	case h.algo == AlgoShake128:
		got = make([]byte, shake128OutputLen)
		h.xof.Read(got)
	case h.algo == AlgoShake256:
		got = make([]byte, shake256OutputLen)
		h.xof.Read(got)
	}
	if len(got) != len(want.Value) {
		return false, nil
	}
	for i := range got {
		if got[i] != want.Value[i] {
			return false, nil
		}
	}
	return true, nil
}
