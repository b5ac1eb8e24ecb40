package providers

import (
	"fmt"
	"petcache/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return v.Errors
	}
	if c.conf.Quota.Budget > c.conf.Storage.Capacity {
		return fmt.Errorf("quota.budget (%d) must not exceed storage.capacity (%d)", c.conf.Quota.Budget, c.conf.Storage.Capacity)
	}
	if c.conf.Storage.Driver != "memory" && c.conf.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for driver %q", c.conf.Storage.Driver)
	}
	return nil
}
