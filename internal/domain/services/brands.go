package services

import "strings"

// brand is one protected brand with its official domains and the keyword
// variants that appear in lookalike registrations.
type brand struct {
	Name     string
	Domains  []string
	Keywords []string
}

// brandDirectory lists the brands the profiler protects. The first domain in
// Domains is the canonical one reported in impersonation findings.
var brandDirectory = []brand{
	{
		Name:     "PayPal",
		Domains:  []string{"paypal.com", "paypal.me"},
		Keywords: []string{"paypal", "paypa1", "payp4l", "paipal"},
	},
	{
		Name:     "Apple",
		Domains:  []string{"apple.com", "icloud.com"},
		Keywords: []string{"apple", "icloud", "appleid", "app1e"},
	},
	{
		Name:     "Google",
		Domains:  []string{"google.com", "gmail.com"},
		Keywords: []string{"google", "gmail", "goog1e", "g00gle"},
	},
	{
		Name:     "Microsoft",
		Domains:  []string{"microsoft.com", "live.com", "outlook.com"},
		Keywords: []string{"microsoft", "outlook", "micros0ft", "office365"},
	},
	{
		Name:     "Amazon",
		Domains:  []string{"amazon.com"},
		Keywords: []string{"amazon", "amaz0n", "arnazon"},
	},
	{
		Name:     "Netflix",
		Domains:  []string{"netflix.com"},
		Keywords: []string{"netflix", "netfl1x"},
	},
	{
		Name:     "Facebook",
		Domains:  []string{"facebook.com", "fb.com"},
		Keywords: []string{"facebook", "faceb00k", "fb-"},
	},
	{
		Name:     "Instagram",
		Domains:  []string{"instagram.com"},
		Keywords: []string{"instagram", "lnstagram", "1nstagram"},
	},
	{
		Name:     "WhatsApp",
		Domains:  []string{"whatsapp.com", "wa.me"},
		Keywords: []string{"whatsapp", "whatsap", "watsapp"},
	},
	{
		Name:     "DHL",
		Domains:  []string{"dhl.com", "dhl.de"},
		Keywords: []string{"dhl"},
	},
	{
		Name:     "FedEx",
		Domains:  []string{"fedex.com"},
		Keywords: []string{"fedex", "fed-ex"},
	},
	{
		Name:     "UPS",
		Domains:  []string{"ups.com"},
		Keywords: []string{"ups-", "-ups"},
	},
	{
		Name:     "USPS",
		Domains:  []string{"usps.com"},
		Keywords: []string{"usps"},
	},
	{
		Name:     "Chase",
		Domains:  []string{"chase.com"},
		Keywords: []string{"chase"},
	},
	{
		Name:     "Wells Fargo",
		Domains:  []string{"wellsfargo.com"},
		Keywords: []string{"wellsfargo", "wells-fargo"},
	},
	{
		Name:     "Bank of America",
		Domains:  []string{"bankofamerica.com"},
		Keywords: []string{"bankofamerica", "bofa"},
	},
}

// matchBrand returns the first brand whose keyword appears in the registered
// domain, or nil when none match.
func matchBrand(registeredDomain string) *brand {
	d := strings.ToLower(registeredDomain)
	for i := range brandDirectory {
		for _, kw := range brandDirectory[i].Keywords {
			if strings.Contains(d, kw) {
				return &brandDirectory[i]
			}
		}
	}
	return nil
}

// isOfficialDomain reports whether host is one of the brand's official
// domains, exactly or as a proper subdomain.
func (b *brand) isOfficialDomain(host string) bool {
	host = strings.ToLower(host)
	for _, d := range b.Domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
