package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceSpaces(t *testing.T) {
	userID := uuid.New()
	adminRef, err := AdminRef(7)
	require.NoError(t, err)
	profileRef, err := RecordRef(TypeMerchantProfile, 15)
	require.NoError(t, err)

	assert.Equal(t, SpaceBusiness, BusinessRef(userID).Space())
	assert.Equal(t, SpaceAdmin, adminRef.Space())
	assert.Equal(t, SpaceAdmin, profileRef.Space())
	assert.Equal(t, SpaceSystem, SystemRef().Space())
	assert.True(t, SystemRef().IsSystem())
	assert.True(t, Reference{}.IsZero())

	id, err := adminRef.InternalID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	got, err := BusinessRef(userID).UUID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = BusinessRef(userID).InternalID()
	require.ErrorIs(t, err, ErrSpaceMismatch)

	_, err = adminRef.UUID()
	require.ErrorIs(t, err, ErrSpaceMismatch)

	_, err = RecordRef(TypeUser, 1)
	require.ErrorIs(t, err, ErrSpaceMismatch)
}

// Синтетическая строка у бизнес-пользователя остается бизнес-ссылкой: пространство определяется только типом.
func TestReferenceTypeIsTheDiscriminator(t *testing.T) {
	raw, err := ToExternalRef(3)
	require.NoError(t, err)

	ref, err := Parse(string(TypeUser), raw)
	require.NoError(t, err)
	assert.Equal(t, SpaceBusiness, ref.Space())

	_, err = ref.InternalID()
	assert.ErrorIs(t, err, ErrSpaceMismatch)
}

func TestParse(t *testing.T) {
	adminRaw, err := ToExternalRef(12)
	require.NoError(t, err)

	cases := []struct {
		name    string
		typ     string
		raw     string
		wantErr error
	}{
		{name: "admin", typ: "AdminUser", raw: adminRaw},
		{name: "user", typ: "User", raw: uuid.NewString()},
		{name: "system", typ: "System", raw: SystemRaw},
		{name: "admin with random uuid", typ: "AdminUser", raw: uuid.NewString(), wantErr: ErrNotSynthetic},
		{name: "system with admin raw", typ: "System", raw: adminRaw, wantErr: ErrSpaceMismatch},
		{name: "unknown type", typ: "Robot", raw: adminRaw, wantErr: ErrUnknownType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := Parse(tc.typ, tc.raw)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, EntityType(tc.typ), ref.Type)
			assert.Equal(t, tc.raw, ref.Raw)
		})
	}

	_, err = Parse("User", "not-a-uuid")
	assert.Error(t, err)
}
