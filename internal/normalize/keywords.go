package normalize

// trimKeywords are trim levels, drivetrain, transmission, body styles,
// engine tokens and edition names removed when deriving a base model.
// Matched as whole words, case-insensitively, after normalization.
var trimKeywords = []string{
	"lariat", "xle", "se", "le", "limited", "ltd", "xlt", "xl", "slt", "sle",
	"gt", "sport", "sports", "premium", "plus", "platinum", "sr5", "trd", "pro",
	"touring", "ex", "lx", "si", "dx", "sx", "ex-l",
	"base", "basic", "value", "classic", "custom",
	"sedan", "coupe", "hatchback", "wagon", "convertible", "suv", "truck",
	"van", "minivan", "pickup", "pick up",
	"4dr", "2dr", "4d", "2d", "sdn", "cpe", "hb", "conv",
	"v6", "v8", "v10", "v12", "i4", "i6", "4-cyl", "6-cyl", "8-cyl", "l4", "l6",
	"hybrid", "phev", "ev", "electric", "ecoboost", "tdi", "diesel",
	"awd", "4wd", "fwd", "rwd", "4x4", "4x2",
	"automatic", "manual", "auto", "man", "cvt",
	"long bed", "short bed", "crew cab", "quad cab", "king cab",
	"off-road", "off road", "z71", "fx4",
	"2.0t", "2.5t", "3.5l", "5.0l", "1.5l", "2.0l", "3.0l",
	"type-r", "type-s", "nismo", "amg", "m-sport", "s-line", "denali",
	"black edition", "special edition", "launch edition", "trail hawk",
	"summit", "overland", "rubicon", "sahara", "altitude", "latitude",
	"laredo", "sel", "titanium", "st", "rs", "sv", "sl",
	"1500", "2500", "3500", "f-150", "f-250", "f-350",
}
