package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLeadInputNormalizes(t *testing.T) {
	fields, errs := ValidateLeadInput(SubmitLeadInput{
		Name:  "  Ana  ",
		Email: "  Ana@X.com ",
		Phone: "(11) 99999-0000",
	})

	require.Empty(t, errs)
	assert.Equal(t, "Ana", fields.Name)
	assert.Equal(t, "ana@x.com", fields.Email)
	assert.Equal(t, "11999990000", fields.Phone)
}

func TestValidateLeadInputRejectsBadEmail(t *testing.T) {
	cases := map[string]string{
		"sem arroba":   "bad-email",
		"sem dominio":  "ana@",
		"com espaco":   "ana maria@x.com",
		"vazio":        "   ",
		"muito grande": strings.Repeat("a", 250) + "@x.com",
	}

	for name, email := range cases {
		t.Run(name, func(t *testing.T) {
			_, errs := ValidateLeadInput(SubmitLeadInput{Email: email})
			require.Len(t, errs, 1)
			assert.Equal(t, "email", errs[0].Field)
		})
	}
}

func TestValidateLeadInputNameRules(t *testing.T) {
	_, errs := ValidateLeadInput(SubmitLeadInput{Email: "a@x.com"})
	assert.Empty(t, errs, "nome é opcional")

	_, errs = ValidateLeadInput(SubmitLeadInput{Email: "a@x.com", Name: "A"})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)

	_, errs = ValidateLeadInput(SubmitLeadInput{Email: "a@x.com", Name: strings.Repeat("é", 121)})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
}

func TestNormalizeNameComposesToNFC(t *testing.T) {
	decomposed := "Jose\u0301"
	assert.Equal(t, "Jos\u00e9", NormalizeName(decomposed))
}

func TestValidateLeadUpdate(t *testing.T) {
	assert.NotEmpty(t, ValidateLeadUpdate(UpdateLeadInput{}))

	empty := "  "
	errs := ValidateLeadUpdate(UpdateLeadInput{Name: &empty})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)

	phone := ""
	assert.Empty(t, ValidateLeadUpdate(UpdateLeadInput{Phone: &phone}), "limpar o telefone é permitido")
}

func TestValidateToken(t *testing.T) {
	var de *DomainError

	err := ValidateToken("")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeMissingToken, de.Code)

	err = ValidateToken("short")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeInvalidToken, de.Code)

	err = ValidateToken("abc$%^&*()defgh")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeInvalidToken, de.Code)

	assert.NoError(t, ValidateToken("abcDEF123_-xyz"))
}
