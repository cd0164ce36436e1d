package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAADContextBytes(t *testing.T) {
	recordID := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
	userID := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8058")
	aad := AADContext{Table: "contacts", RecordID: recordID, Field: "phone", UserID: userID}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, aad.Bytes(), aad.Bytes())
		assert.Equal(t,
			"contacts|01890a5d-ac96-774b-bcce-b302099a8057|phone|01890a5d-ac96-774b-bcce-b302099a8058",
			string(aad.Bytes()),
		)
	})

	t.Run("any identity change produces different bytes", func(t *testing.T) {
		variants := []AADContext{
			{Table: "tasks", RecordID: recordID, Field: "phone", UserID: userID},
			{Table: "contacts", RecordID: uuid.Must(uuid.NewV7()), Field: "phone", UserID: userID},
			aad.WithField("email"),
			{Table: "contacts", RecordID: recordID, Field: "phone", UserID: uuid.Must(uuid.NewV7())},
		}
		for _, v := range variants {
			assert.NotEqual(t, aad.Bytes(), v.Bytes())
		}
	})
}

func TestAADContextWithField(t *testing.T) {
	aad := AADContext{Table: "contacts", Field: "phone"}
	scoped := aad.WithField("email")
	assert.Equal(t, "email", scoped.Field)
	assert.Equal(t, "phone", aad.Field) // original untouched
}
