// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalpainternational/dbsamizdat-go/pkg/samizdat"
)

func TestRegisterAndDiscover(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(&samizdat.Samizdat{Kind: samizdat.KindView, Name: "a"})
	Register(&samizdat.Samizdat{Kind: samizdat.KindView, Name: "b"})

	sds, err := (Registry{}).Discover()
	require.NoError(t, err)
	require.Len(t, sds, 2)
	assert.Equal(t, "a", sds[0].Name)
	assert.Equal(t, "b", sds[1].Name)
}

func TestDiscover_ReturnsCopyNotSharedSlice(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(&samizdat.Samizdat{Kind: samizdat.KindView, Name: "a"})

	sds, err := (Registry{}).Discover()
	require.NoError(t, err)
	sds[0] = nil

	again, err := (Registry{}).Discover()
	require.NoError(t, err)
	assert.NotNil(t, again[0], "mutating a Discover result must not corrupt the registry")
}
