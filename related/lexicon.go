package related

// concept is one expansion rule: when keyword occurs anywhere in a
// document's lowercased text, expansion is appended before tokenizing.
type concept struct {
	keyword   string
	expansion string
}

// concepts bridges topics that share no vocabulary. Rules are applied in
// order and overlapping keywords all fire.
var concepts = []concept{
	{"pokémon", "anime manga videojuego franquicia nintendo tcg coleccionable japón otaku"},
	{"pokemon", "anime manga videogame franchise nintendo tcg collectible japan otaku"},
	{"anime", "manga japón otaku serie animación videojuego japan animation"},
	{"manga", "anime japón otaku comic historieta japan"},
	{"otaku", "anime manga japón cosplay fujoshi"},
	{"cosplay", "anime manga otaku convención fandom"},
	{"fujoshi", "anime manga otaku fanfic fandom"},
	{"jujutsu", "anime manga shonen japón otaku"},
	{"frieren", "anime manga fantasy japón otaku"},
	{"demon slayer", "anime manga shonen japón otaku kimetsu"},
	{"kimetsu", "anime manga shonen japón otaku"},
	{"robotech", "anime mecha japón serie animación"},
	{"gojira", "japón kaiju cine película monstruo tokusatsu"},
	{"godzilla", "japón kaiju cine película monstruo tokusatsu"},
	{"ōtomo", "manga anime akira japón comic"},
	{"akira", "manga anime japón cyberpunk"},
	{"one piece", "anime manga shonen serie japón"},
	{"bluey", "animación serie infantil dibujo cartoon"},
	{"tcg", "carta coleccionable trading card magic pokemon videojuego gaming"},
	{"magic the gathering", "tcg carta coleccionable draft arena formato torneo"},
	{"magic", "tcg carta coleccionable gathering arena draft"},
	{"mtg", "tcg magic carta coleccionable gathering"},
	{"premodern", "magic tcg carta coleccionable formato"},
	{"ultimate team", "tcg carta coleccionable gaming fifa ea"},
	{"trading card", "tcg coleccionable magic pokemon carta"},
	{"videojuego", "gaming consola juego gamer pixel retro indie"},
	{"videogame", "gaming console game gamer pixel retro indie"},
	{"playstation", "consola sony videojuego gaming ps1 ps2"},
	{"nintendo", "consola videojuego gaming mario pokemon snes nes"},
	{"snes", "nintendo consola retro 16bit videojuego"},
	{"nes", "nintendo consola retro 8bit videojuego famicom"},
	{"pixel art", "retro videojuego indie gaming estético"},
	{"retrogaming", "retro videojuego consola nostalgia clásico"},
	{"elden ring", "videojuego fromsoftware souls rpg"},
	{"silent hill", "videojuego horror terror survival"},
	{"diablo", "videojuego rpg blizzard hack slash"},
	{"starcraft", "videojuego estrategia blizzard esport"},
	{"civilization", "videojuego estrategia turno 4x historia"},
	{"commandos", "videojuego estrategia táctica retro"},
	{"argentum", "videojuego mmorpg argentino online comunidad"},
	{"indie", "videojuego independiente gaming desarrollo"},
	{"fear hunger", "videojuego horror dungeon rpg"},
	{"juegos de mesa", "tablero tabletop dados cartas familia boardgame hobby"},
	{"board game", "tabletop dice cards family boardgame hobby"},
	{"tabletop", "mesa tablero boardgame dados hobby"},
	{"warhammer", "miniatura tabletop mesa figurin games workshop estrategia"},
	{"space hulk", "warhammer boardgame tabletop mesa games workshop"},
	{"maldón", "juegos mesa tablero familia argentino"},
	{"rol", "mesa tabletop rpg dados aventura personaje"},
	{"metal", "rock música heavy banda guitarra thrash death doom"},
	{"thrash", "metal rock heavy música banda"},
	{"death metal", "metal heavy música progresivo banda"},
	{"punk", "rock underground indie diy música banda"},
	{"rock", "música banda guitarra concierto festival"},
	{"bluegrass", "música folk country americana instrumento banjo"},
	{"noise", "música experimental sonido underground diy"},
	{"psicodelia", "música rock experimental lisérgico droga"},
	{"psychedelia", "music rock experimental psychedelic drug"},
	{"dungeon synth", "metal música medieval fantasy ambient"},
	{"babasonicos", "rock argentino música banda alternativo"},
	{"black sabbath", "metal rock heavy música banda ozzy birmingham"},
	{"comic", "historieta superhéroe marvel dc manga novela gráfica"},
	{"comics", "comic superhero marvel dc manga graphic novel"},
	{"batman", "dc comic superhéroe gotham historieta"},
	{"superman", "dc comic superhéroe krypton historieta"},
	{"fantastic four", "marvel comic superhero team"},
	{"marvel", "comic superhéroe avengers spider fantastic"},
	{"dc", "comic superhéroe batman superman justice"},
	{"alan moore", "comic historieta watchmen swamp thing graphic novel"},
	{"grant morrison", "comic superhéroe dc marvel historieta"},
	{"historieta", "comic manga superhéroe novela gráfica"},
	{"lovecraft", "horror cósmico terror cthulhu weird ficción literatura"},
	{"horror comic", "manga terror historieta halloween"},
	{"película", "cine film director actor serie"},
	{"movie", "cinema film director actor series"},
	{"slasher", "horror terror película cine halloween"},
	{"robocop", "ciencia ficción cine película cyberpunk"},
	{"blade runner", "ciencia ficción cine película cyberpunk"},
	{"matrix", "ciencia ficción cine película cyberpunk anime"},
	{"hackers", "cine película cyberpunk internet hacker"},
	{"ia", "inteligencia artificial machine learning tecnología computadora"},
	{"ai", "artificial intelligence machine learning technology computer"},
	{"linux", "open source software computadora sistema operativo"},
	{"quantum", "computadora tecnología qubit ciencia"},
	{"crispr", "genética biotecnología ciencia edición"},
	{"microchip", "semiconductor tecnología computadora hardware"},
	{"internet", "web digital online red tecnología"},
	{"4chan", "internet foro meme cultura online anónimo reddit chan"},
	{"crypto", "blockchain bitcoin ethereum descentralizado web3"},
	{"small web", "internet protocolo abierto comunidad alternativo"},
	{"colección", "coleccionable vintage objeto hobby figura"},
	{"collection", "collectible vintage object hobby figure"},
	{"vintage", "retro colección nostalgia coleccionable"},
	{"kenner", "juguete figura coleccionable alien acción"},
	{"playmates", "juguete figura coleccionable tortugas ninja acción"},
	{"escritor", "literatura libro novela cuento autor escritura"},
	{"writer", "literature book novel story author writing"},
	{"pynchon", "literatura novela posmoderno ficción autor"},
	{"argentino", "argentina nacional local buenos aires"},
	{"argentine", "argentina national local buenos aires"},
}

// SpanishStopwords are dropped from the Spanish partition before vectorizing.
var SpanishStopwords = newStopwords(
	"el", "la", "los", "las", "un", "una", "de", "del", "en", "y", "a", "por",
	"con", "para", "que", "es", "se", "al", "lo", "su", "como", "más", "pero",
	"sus", "le", "ya", "o", "este", "ha", "si", "esta", "entre", "cuando", "sin",
	"sobre", "ser", "también", "me", "hasta", "hay", "donde", "desde", "todo",
	"nos", "durante", "todos", "uno", "les", "ni", "otros", "ese", "eso", "ante",
	"ellos", "esto", "antes", "algunos", "otro", "otras", "otra", "él", "tanto",
	"esa", "estos", "mucho", "nada", "muchos", "poco", "ella", "estar", "algo",
	"nosotros",
)

// EnglishStopwords are dropped from the English partition before vectorizing.
var EnglishStopwords = newStopwords(
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i", "it", "for",
	"not", "on", "with", "he", "as", "you", "do", "at", "this", "but", "his",
	"by", "from", "they", "we", "say", "her", "she", "or", "an", "will", "my",
	"one", "all", "would", "there", "their", "what", "so", "up", "out", "if",
	"about", "who", "get", "which", "go", "me", "when", "make", "can", "like",
	"time", "no", "just", "him", "know", "take", "people", "into", "year", "your",
	"good", "some", "could", "them", "see", "other", "than", "then", "now",
	"look", "only", "come", "its", "over", "think", "also", "back", "after",
	"use", "two", "how", "our", "work", "first", "well", "way", "even", "new",
	"want", "because", "any", "these", "give", "day", "most", "us", "is", "was",
	"are", "been", "has", "had", "were",
)

// Stopwords is a set of tokens excluded from a corpus.
type Stopwords map[string]struct{}

func newStopwords(words ...string) Stopwords {
	s := make(Stopwords, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Has reports whether token is a stopword.
func (s Stopwords) Has(token string) bool {
	_, ok := s[token]
	return ok
}
