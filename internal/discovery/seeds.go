package discovery

// seedTable lists component pages known to expose their code. It is used
// whole when discovery is off or fails.
var seedTable = [...]string{
	"https://uiverse.io/alexruix/tame-fly-42",
	"https://uiverse.io/catraco/fluffy-quail-74",
	"https://uiverse.io/gharsh11032000/loud-chicken-53",
	"https://uiverse.io/Codecite/angry-bullfrog-58",
	"https://uiverse.io/satyamchaudharydev/rude-wolverine-24",
	"https://uiverse.io/levxyca/tidy-mayfly-7",
	"https://uiverse.io/cssbuttons-io/wonderful-baboon-62",
	"https://uiverse.io/elijahgummer/bright-chicken-11",
	"https://uiverse.io/Galahhad/breezy-wolverine-23",
	"https://uiverse.io/milegelu/tough-cobra-42",
	"https://uiverse.io/neerajbaniwal/hungry-mule-59",
	"https://uiverse.io/vinodjangid07/chilly-newt-81",
	"https://uiverse.io/kennyotsu/fresh-lizard-20",
	"https://uiverse.io/njesenberger/rude-stingray-22",
	"https://uiverse.io/adamgiebl/wise-moth-35",
	"https://uiverse.io/vinodjangid07/good-donkey-28",
	"https://uiverse.io/seyed-mohsen-mousavi/chatty-frog-63",
	"https://uiverse.io/cbolson/calm-wasp-75",
	"https://uiverse.io/Na3ar-17/evil-dragon-24",
	"https://uiverse.io/Nawsome/heavy-cheetah-95",
	"https://uiverse.io/Spacious74/helpless-tiger-55",
	"https://uiverse.io/TaniaDou/witty-rabbit-59",
	"https://uiverse.io/Darlley/jolly-yak-41",
	"https://uiverse.io/vinodjangid07/moody-rabbit-65",
	"https://uiverse.io/jeremyssocial/ugly-bullfrog-62",
	"https://uiverse.io/iZOXVL/wise-goat-75",
	"https://uiverse.io/Shoh2008/bad-emu-73",
	"https://uiverse.io/elijahgummer/light-jellyfish-4",
	"https://uiverse.io/Yaya12085/bright-dolphin-91",
	"https://uiverse.io/Cksunandh/purple-moose-3",
	"https://uiverse.io/hakemdamer222/funny-ape-73",
}

// Seeds returns a fresh copy of the seed list.
func Seeds() []string {
	out := make([]string, len(seedTable))
	copy(out, seedTable[:])
	return out
}
