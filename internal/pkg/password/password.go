package password

import "golang.org/x/crypto/bcrypt"

// MaxLength is the longest secret bcrypt accepts, in bytes.
const MaxLength = 72

// Hasher turns a secret into a digest and checks a secret against a digest.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type bcryptHasher struct {
	cost int
}

func NewBcrypt(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *bcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
