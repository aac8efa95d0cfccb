package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/Tiliavir/ponto/internal/model"
)

func TestCsvEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"Retorno do intervalo", "Retorno do intervalo"},
		{"Saída, intervalo", `"Saída, intervalo"`},
		{`with"quote`, `"with""quote"`},
		{"with\nnewline", "\"with\nnewline\""},
		{"with\rreturn", "\"with\rreturn\""},
		{"", ""},
	}
	for _, tt := range tests {
		got := csvEscape(tt.input)
		if got != tt.want {
			t.Errorf("csvEscape(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPrintCSV(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	lat, lng := -23.55052, -46.633308
	punches := []model.Punch{
		{
			ID: "p1", Kind: model.KindIn, Timestamp: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
			Latitude: &lat, Longitude: &lng, Source: "kiosk, lobby", ExternalID: "17",
		},
		{ID: "p2", Kind: "nap", Timestamp: time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC), Source: "remote"},
	}

	var buf bytes.Buffer
	printCSV(&buf, punches, brt)

	want := "date,time,type,label,latitude,longitude,source,id,external_id\n" +
		"2026-10-19,2026-10-19T09:00:00-03:00,in,Entrada,-23.550520,-46.633308,\"kiosk, lobby\",p1,17\n" +
		"2026-10-19,2026-10-19T12:30:00-03:00,nap,Unknown,,,remote,p2,\n"
	if got := buf.String(); got != want {
		t.Errorf("printCSV =\n%s\nwant\n%s", got, want)
	}
}
