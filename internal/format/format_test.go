package format

import "testing"

func TestRupiah(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{10000, "Rp 10.000"},
		{1234567, "Rp 1.234.567"},
		{-25000, "-Rp 25.000"},
	}
	for _, c := range cases {
		if got := Rupiah(c.in); got != c.want {
			t.Errorf("Rupiah(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := EscapeMarkdown("a_b*c`d[e"); got != "a\\_b\\*c\\`d\\[e" {
		t.Errorf("EscapeMarkdown = %q", got)
	}
	// Legacy Markdown only knows four special characters; everything
	// else must render as typed.
	for _, plain := range []string{"SG-1", "v2.ray", "waktu (WIB)", "#1", "a+b=c!"} {
		if got := EscapeMarkdown(plain); got != plain {
			t.Errorf("EscapeMarkdown(%q) = %q, want unchanged", plain, got)
		}
	}
}

func TestBackButtonDefaults(t *testing.T) {
	b := BackButton("", "")
	if b.Text != "⬅️ Kembali" {
		t.Errorf("default text = %q", b.Text)
	}
	if b.CallbackData == nil || *b.CallbackData != "back_menu" {
		t.Errorf("default data = %v", b.CallbackData)
	}

	b = BackButton("❌ Batalkan", "admin_panel_main")
	if b.Text != "❌ Batalkan" || *b.CallbackData != "admin_panel_main" {
		t.Errorf("custom button = %q %v", b.Text, *b.CallbackData)
	}
}

func TestCensorUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"budisantoso", "bud********"},
		{"ab", "ab***"},
		{"", "***"},
	}
	for _, c := range cases {
		if got := CensorUsername(c.in); got != c.want {
			t.Errorf("CensorUsername(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCensorAmount(t *testing.T) {
	got := CensorAmount(50000)
	if got == "Rp 50.000" {
		t.Error("censored amount must not reveal the value")
	}
	if got[:4] != "Rp 5" {
		t.Errorf("censored amount should keep the leading digit: %q", got)
	}
}
