package role

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Name string

const (
	Oracle     Name = "oracle"
	Liquidator Name = "liquidator"
	Admin      Name = "admin"
)

var (
	ErrNotFound           = errors.New("role not initialized")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAlreadyInitialized = errors.New("role already initialized")
	ErrUnknownRole        = errors.New("unknown role")
)

func (n Name) Valid() bool {
	switch n {
	case Oracle, Liquidator, Admin:
		return true
	}
	return false
}

// Holder binds a singleton role to the account allowed to exercise it.
type Holder struct {
	Role      Name           `json:"role"`
	Holder    common.Address `json:"holder"`
	CreatedAt time.Time      `json:"created_at"`
}
