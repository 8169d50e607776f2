// SPDX-License-Identifier: Apache-2.0

package samizdat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFQN_String(t *testing.T) {
	assert.Equal(t, `"public"."x"`, FQN{Schema: "public", Name: "x"}.String())
	assert.Equal(t, `"public"."f"(int)`, FQN{Schema: "public", Name: "f", Args: "int"}.String())
}

func TestFqify_DefaultsSchema(t *testing.T) {
	assert.Equal(t, FQN{Schema: "public", Name: "x"}, Fqify(RefName("x"), "public"))
	assert.Equal(t, FQN{Schema: "other", Name: "x"}, Fqify(RefSchema("other", "x"), "public"))
}

func TestSamizdatFQN_TriggerFoldsTable(t *testing.T) {
	a := &Samizdat{Kind: KindTrigger, Name: "t_touch", OnTable: "widgets"}
	b := &Samizdat{Kind: KindTrigger, Name: "t_touch", OnTable: "gadgets"}
	assert.NotEqual(t, a.FQN(), b.FQN())
}

func TestSamizdatFQN_FunctionNameOverride(t *testing.T) {
	sd := &Samizdat{Kind: KindFunction, Name: "ignored", FunctionName: "real_name"}
	assert.Equal(t, "real_name", sd.FQN().Name)
}
