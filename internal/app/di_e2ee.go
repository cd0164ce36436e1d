package app

import (
	"fmt"

	e2eeService "github.com/sealkeep/sealkeep/internal/e2ee/service"
)

// AEADManager returns the AEAD cipher factory.
func (c *Container) AEADManager() (e2eeService.AEADManager, error) {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = e2eeService.NewAEADManager()
	})
	return c.aeadManager, nil
}

// KeyDeriver returns the master key derivation service.
func (c *Container) KeyDeriver() (e2eeService.KeyDeriver, error) {
	c.keyDeriverInit.Do(func() {
		c.keyDeriver = e2eeService.NewKDF()
	})
	return c.keyDeriver, nil
}

// FieldCodec returns the authenticated field codec.
func (c *Container) FieldCodec() (e2eeService.FieldCodec, error) {
	c.fieldCodecInit.Do(func() {
		aeadManager, err := c.AEADManager()
		if err != nil {
			c.initErrors["fieldCodec"] = fmt.Errorf("failed to get aead manager for field codec: %w", err)
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["fieldCodec"] = fmt.Errorf("failed to get business metrics for field codec: %w", err)
			return
		}

		c.fieldCodec = e2eeService.NewFieldCodec(aeadManager, c.Logger(), businessMetrics)
	})
	if storedErr, exists := c.initErrors["fieldCodec"]; exists {
		return nil, storedErr
	}
	return c.fieldCodec, nil
}
