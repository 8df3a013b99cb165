package i18nx_test

import (
	"testing"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yec "gitlab.com/yecreg/yec-backend"
	"gitlab.com/yecreg/yec-backend/pkg/i18nx"
)

func TestNewBundle(t *testing.T) {
	bundle, err := i18nx.NewBundle(yec.Locales)
	require.NoError(t, err)

	tests := []struct {
		name string
		lang string
		key  string
		data map[string]any
		want string
	}{
		{
			name: "english error",
			lang: "en",
			key:  "review_already_approved",
			want: "The registration is already approved",
		},
		{
			name: "russian error",
			lang: "ru",
			key:  "review_already_approved",
			want: "Регистрация уже одобрена",
		},
		{
			name: "missing translation falls back to english",
			lang: "kk",
			key:  "review_invalid_transition",
			want: "This review transition is not allowed",
		},
		{
			name: "unknown language",
			lang: "de",
			key:  i18nx.SubjectKey(i18nx.TemplateApproved),
			data: map[string]any{"RegistrationID": "YEC-0001"},
			want: "Registration YEC-0001 approved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := i18nx.Localize(i18nx.Localizer(bundle, tt.lang), &i18n.LocalizeConfig{
				MessageID:    tt.key,
				TemplateData: tt.data,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocalize_MissingEverywhere(t *testing.T) {
	bundle, err := i18nx.NewBundle(yec.Locales)
	require.NoError(t, err)

	_, err = i18nx.Localize(i18nx.Localizer(bundle, "kk"), &i18n.LocalizeConfig{MessageID: "no_such_message"})

	var notFound *i18n.MessageNotFoundErr
	assert.ErrorAs(t, err, &notFound)
}
