package models

// Advisory option lists for the categorical task fields. They are served to
// forms but not enforced, so new values can be used without a deploy.
var (
	LSAOptions = []string{"AP", "GJ", "KA", "KR", "MP", "MH", "MB", "OR", "TN"}

	TSPOptions = []string{
		"Airtel", "BSNL", "MTNL", "Reliance", "Reliance Jio", "Tata", "Vodafone",
		"Citicom ILD", "P3 Tech ILD", "Reliance ILD/IPLC", "Sify ILD/IPLC",
		"Vodafone ILD/IPLC", "Airtel IPLC", "AT & T IPLC", "British Telecom IPLC",
		"Lightstorm IPLC", "Orange IPLC", "Singtel IPLC", "Sprint IPLC",
		"Telstra IPLC", "Verizon IPLC", "Ring Central VOIP", "None", "GCXG-IPLC",
	}

	DotLEAOptions = []string{
		"DoT & LEA", "Dot", "CBDT", "CBI", "DOW/ED", "DRI", "NCB", "Police",
		"Police - CG", "IB", "RAW", "None",
	}
)
