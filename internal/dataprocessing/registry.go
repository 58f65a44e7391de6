package dataprocessing

import (
	"errors"
	"fmt"

	apperrors "bizdash/internal/errors"
)

// ErrUnknownDomain is wrapped by Lookup failures.
var ErrUnknownDomain = errors.New("unknown domain")

// Domains lists the supported domains in display order.
func Domains() []Domain {
	return []Domain{DomainHR, DomainFinance, DomainSales, DomainSupplyChain, DomainCRM}
}

// Registry builds a fresh domain to strategy mapping. Nothing is cached
// between calls; strategies carry no state.
func Registry() map[Domain]Strategy {
	return map[Domain]Strategy{
		DomainHR:          NewHRStrategy(),
		DomainFinance:     NewFinanceStrategy(),
		DomainSales:       NewSalesStrategy(),
		DomainSupplyChain: NewSupplyChainStrategy(),
		DomainCRM:         NewCRMStrategy(),
	}
}

// Lookup resolves a domain name to a new strategy instance.
func Lookup(name string) (Strategy, error) {
	s, ok := Registry()[Domain(name)]
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("domain %q is not supported", name), ErrUnknownDomain).
			WithContext("domain", name)
	}
	return s, nil
}
