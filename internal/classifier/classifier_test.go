package classifier

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    ContentType
	}{
		{"json object", `{"coupons": []}`, JSON},
		{"json array", `[{"code": "SAVE10"}]`, JSON},
		{"html", `<html><body>hi</body></html>`, HTML},
		{"html with leading whitespace", "  \n<div>hi</div>", HTML},
		{"csv with tab", "code\tcode2\nSAVE10\tSAVE20", CSV},
		{"csv all lines comma", "code,title\nSAVE10,10% off\nSAVE20,20% off", CSV},
		{"plain text", "Use code SAVE10 at checkout for 10% off", Unknown},
		{"empty", "", Unknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify([]byte(tc.payload)); got != tc.want {
				t.Errorf("Classify(%q) = %v, want %v", tc.payload, got, tc.want)
			}
		})
	}
}
