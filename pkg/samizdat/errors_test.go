// SPDX-License-Identifier: Apache-2.0

package samizdat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("active_users"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName(strings.Repeat("a", MaxNameLength+1)))
	assert.Error(t, ValidateName(`has"quote`))
	assert.Error(t, ValidateName("café"))
}
