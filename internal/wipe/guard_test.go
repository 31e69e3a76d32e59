package wipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securewipe/internal/system"
)

func validRequest() Request {
	return Request{
		Target:             system.DriveDescriptor{DeviceID: "/dev/sdb", SizeBytes: 1 << 30},
		MethodID:           "quick",
		ConfirmationPhrase: "ERASE ALL DATA",
	}
}

func TestAuthorizeValid(t *testing.T) {
	require.NoError(t, Authorize(validRequest()))
}

func TestAuthorizeNoTarget(t *testing.T) {
	req := validRequest()
	req.Target = system.DriveDescriptor{}
	assert.ErrorIs(t, Authorize(req), ErrNoTarget)
}

func TestAuthorizePhraseNormalization(t *testing.T) {
	// регистр и краевые пробелы не считаются отличием
	for _, phrase := range []string{
		"ERASE ALL DATA",
		"erase all data",
		"  Erase All Data  ",
		"\terase ALL data\n",
	} {
		req := validRequest()
		req.ConfirmationPhrase = phrase
		assert.NoError(t, Authorize(req), "фраза %q", phrase)
	}
}

func TestAuthorizePhraseMismatch(t *testing.T) {
	for _, phrase := range []string{
		"",
		"ERASE DATA",
		"ERASE  ALL  DATA",
		"ERASE ALL DATA!",
		"yes",
	} {
		req := validRequest()
		req.ConfirmationPhrase = phrase
		assert.ErrorIs(t, Authorize(req), ErrConfirmationMismatch, "фраза %q", phrase)
	}
}

func TestAuthorizeSystemDriveNeedsAcknowledgment(t *testing.T) {
	req := validRequest()
	req.Target.IsSystem = true
	assert.ErrorIs(t, Authorize(req), ErrSystemDriveUnconfirmed)

	req.AcknowledgeSystemDrive = true
	assert.NoError(t, Authorize(req))
}

func TestAuthorizeSystemDriveCheckedAfterPhrase(t *testing.T) {
	// без фразы до проверки системного диска дело не доходит
	req := validRequest()
	req.Target.IsSystem = true
	req.ConfirmationPhrase = ""
	assert.ErrorIs(t, Authorize(req), ErrConfirmationMismatch)
}
