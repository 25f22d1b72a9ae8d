package matching

// Subject is one independently configured game. ID doubles as the
// best-record identity.
type Subject struct {
	ID       string
	Title    string
	Registry *Registry
}

var matterPairs = MustRegistry([]Pair{
	{Key: "padat-cair", Label: "Padat → Cair", Answer: "Mencair"},
	{Key: "cair-padat", Label: "Cair → Padat", Answer: "Membeku"},
	{Key: "cair-gas", Label: "Cair → Gas", Answer: "Menguap"},
	{Key: "gas-cair", Label: "Gas → Cair", Answer: "Mengembun"},
	{Key: "padat-gas", Label: "Padat → Gas", Answer: "Menyublim"},
	{Key: "gas-padat", Label: "Gas → Padat", Answer: "Deposisi (Mengkristal)"},
})

var energyPairs = MustRegistry([]Pair{
	{Key: "setrika", Label: "Setrika", Answer: "Listrik → Panas"},
	{Key: "lampu", Label: "Lampu", Answer: "Listrik → Cahaya"},
	{Key: "kipas-angin", Label: "Kipas angin", Answer: "Listrik → Gerak"},
	{Key: "pengeras-suara", Label: "Pengeras suara", Answer: "Listrik → Bunyi"},
	{Key: "baterai-senter", Label: "Baterai senter", Answer: "Kimia → Listrik"},
	{Key: "panel-surya", Label: "Panel surya", Answer: "Cahaya → Listrik"},
	{Key: "turbin-air", Label: "Turbin air", Answer: "Gerak → Listrik"},
	{Key: "fotosintesis", Label: "Fotosintesis", Answer: "Cahaya → Kimia"},
})

// DefaultSubjects returns the shipped games in tab order.
func DefaultSubjects() []Subject {
	return []Subject{
		{ID: "matter", Title: "Perubahan Wujud Zat", Registry: matterPairs},
		{ID: "energy", Title: "Perubahan Energi", Registry: energyPairs},
	}
}
