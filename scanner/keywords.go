package scanner

import "strings"

// maxKeywordsPerSubcategory caps search fan-out so one scan request cannot
// hammer marketplaces with dozens of queries.
const maxKeywordsPerSubcategory = 20

// subcategoryKeywords maps a lowercased subcategory name to the search terms
// used against each marketplace. Common misspellings are included on purpose;
// mistyped listings are underpriced listings.
var subcategoryKeywords = map[string][]string{
	"headphones": {
		"sony wh-1000xm4", "sony wh-1000xm5", "bose quietcomfort",
		"airpods pro", "airpods max", "sennheiser hd 600",
		"beats studio pro", "air pods", "airpod pros", "headphones wireless",
	},
	"keyboards": {
		"mechanical keyboard", "keychron", "ducky one", "logitech g pro keyboard",
		"razer huntsman", "custom keyboard", "mechanical keybord",
	},
	"graphics cards": {
		"rtx 4070", "rtx 4080", "rtx 3080", "rtx 3090", "rx 7800 xt",
		"nvidia gpu", "graphics card", "grafics card", "video card gaming",
	},
	"laptops": {
		"macbook pro", "macbook air m2", "thinkpad x1 carbon", "dell xps 13",
		"gaming laptop", "asus rog laptop", "laptop rtx",
	},
	"monitors": {
		"gaming monitor 144hz", "lg ultragear", "dell ultrasharp",
		"samsung odyssey", "4k monitor", "ultrawide monitor",
	},
	"vintage tech": {
		"walkman", "game boy", "gameboy color", "ipod classic", "ipod nano",
		"polaroid camera", "crt monitor", "vintage camera", "casio vintage",
	},
	"cpus": {
		"ryzen 7 7800x3d", "ryzen 9", "intel i7 13700k", "intel i9",
		"amd processor", "cpu processor",
	},
	"routers": {
		"wifi 6 router", "asus router", "netgear nighthawk", "tp-link router",
		"mesh wifi", "ubiquiti",
	},
	"consoles": {
		"playstation 5", "ps5 console", "xbox series x", "nintendo switch oled",
		"steam deck", "ps4 pro", "playstaton", "nintendo swich",
	},
	"pokemon cards": {
		"pokemon card lot", "charizard card", "pokemon booster box",
		"pokemon 151", "pokemon psa", "pokmon cards", "pokemon tcg sealed",
	},
	"magic cards": {
		"mtg card lot", "magic the gathering collection", "mtg booster box",
		"mtg foil", "commander deck",
	},
	"yugioh cards": {
		"yugioh card lot", "yugioh collection", "blue eyes white dragon",
		"yu-gi-oh sealed", "yugioh 1st edition", "yu gi oh cards",
	},
	"sports cards": {
		"baseball card lot", "basketball cards", "football rookie card",
		"topps chrome", "panini prizm", "psa graded card", "sports card collection",
	},
	"funko pops": {
		"funko pop lot", "funko pop exclusive", "funko pop chase",
		"funko pop grail", "funko vaulted",
	},
	"coins": {
		"morgan silver dollar", "coin collection lot", "silver coins",
		"proof set", "wheat pennies", "rare coins",
	},
	"comics": {
		"comic book lot", "marvel comics key", "cgc graded comic",
		"spiderman comic", "first appearance comic",
	},
	"vintage toys": {
		"vintage star wars figures", "vintage transformers", "hot wheels redline",
		"vintage lego set", "tamagotchi", "vintage action figures",
	},
	"action figures": {
		"action figure lot", "marvel legends", "neca figure", "gi joe classified",
		"star wars black series",
	},
	"jordans": {
		"air jordan 1", "jordan 4 retro", "jordan 1 high og", "jordan 11",
		"air jordans size", "jordan retro deadstock",
	},
	"nike dunks": {
		"nike dunk low", "nike dunk high", "dunk low panda", "sb dunk",
		"nike dunks size",
	},
	"yeezys": {
		"yeezy boost 350", "yeezy 700", "yeezy slide", "adidas yeezy",
	},
	"new balance": {
		"new balance 550", "new balance 990", "new balance 2002r",
		"new balance made in usa",
	},
	"vintage denim": {
		"levis 501 vintage", "vintage levis jacket", "selvedge denim",
		"vintage wrangler", "levi's big e",
	},
	"band tees": {
		"vintage band tee", "vintage metallica shirt", "vintage nirvana shirt",
		"vintage tour shirt", "single stitch tee",
	},
	"vintage jackets": {
		"vintage leather jacket", "vintage carhartt jacket", "vintage starter jacket",
		"vintage north face", "vintage denim jacket",
	},
}

// KeywordsFor returns the search terms for a subcategory, capped at
// maxKeywordsPerSubcategory. Unknown subcategories fall back to the
// subcategory name itself so a scan never silently searches nothing.
func KeywordsFor(subcategory string) []string {
	key := strings.ToLower(strings.TrimSpace(subcategory))
	keywords, ok := subcategoryKeywords[key]
	if !ok || len(keywords) == 0 {
		return []string{key}
	}
	if len(keywords) > maxKeywordsPerSubcategory {
		keywords = keywords[:maxKeywordsPerSubcategory]
	}
	out := make([]string, len(keywords))
	copy(out, keywords)
	return out
}

// KnownSubcategories lists every subcategory with a curated keyword set.
func KnownSubcategories() []string {
	names := make([]string, 0, len(subcategoryKeywords))
	for name := range subcategoryKeywords {
		names = append(names, name)
	}
	return names
}
