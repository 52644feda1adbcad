package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionHashDeterminism(t *testing.T) {
	def := SimplePredicate{Name: "p", Attribute: "v", Op: OpLess, Left: VarX, Right: OtherVariable()}

	h1, err := DefinitionHash(def)
	require.NoError(t, err)
	h2, err := DefinitionHash(def)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "hex-encoded SHA-256")
}

func TestDefinitionHashChangesWithContent(t *testing.T) {
	base := SimplePredicate{Name: "p", Attribute: "v", Op: OpLess, Left: VarX, Right: OtherVariable()}
	h, err := DefinitionHash(base)
	require.NoError(t, err)

	variants := map[string]Definition{
		"name":     WithName(base, "q"),
		"op":       SimplePredicate{Name: "p", Attribute: "v", Op: OpGreater, Left: VarX, Right: OtherVariable()},
		"left":     SimplePredicate{Name: "p", Attribute: "v", Op: OpLess, Left: VarY, Right: OtherVariable()},
		"constant": SimplePredicate{Name: "p", Attribute: "v", Op: OpLess, Left: VarX, Right: Constant(Int(5))},
	}
	for name, def := range variants {
		t.Run(name, func(t *testing.T) {
			other, err := DefinitionHash(def)
			require.NoError(t, err)
			assert.NotEqual(t, h, other)
		})
	}
}

func TestDefinitionHashCompoundArgOrder(t *testing.T) {
	a, err := DefinitionHash(CompoundPredicate{Name: "Q", Op: LogicImplies, Args: []string{"p", "q"}})
	require.NoError(t, err)
	b, err := DefinitionHash(CompoundPredicate{Name: "Q", Op: LogicImplies, Args: []string{"q", "p"}})
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "argument order is significant")
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// Without the separator "ab"+"c" and "a"+"bc" would collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestDefinitionHashErrorHandling(t *testing.T) {
	_, err := DefinitionHash(SimplePredicate{Name: "p", Right: Operand{Kind: OperandConst}})
	assert.Error(t, err)
}

func TestDomainDefinitionCarriesVersion(t *testing.T) {
	assert.Equal(t, "quantq/definition/v1", DomainDefinition)
}
