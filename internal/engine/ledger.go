package engine

// MaxOptions limita o número de opções de um jogo; mantém o scan de solvência
// com custo fixo por aposta.
const MaxOptions = 10

// oddsLedger acumula, por opção, a responsabilidade contingente total
// (soma de stake*odds/100 das apostas aceitas naquela opção).
type oddsLedger struct {
	n         int
	liability [MaxOptions]int64
}

func newOddsLedger(n int) oddsLedger {
	return oddsLedger{n: n}
}

// add registra o prêmio contingente de uma aposta aceita. idx é 0-indexed.
func (l *oddsLedger) add(idx int, prizeCents int64) {
	l.liability[idx] += prizeCents
}

func (l *oddsLedger) at(idx int) int64 {
	return l.liability[idx]
}

// max retorna a maior responsabilidade entre todas as opções — o pior caso
// que o pool precisa cobrir, já que no máximo uma opção vence.
func (l *oddsLedger) max() int64 {
	var m int64
	for i := 0; i < l.n; i++ {
		if l.liability[i] > m {
			m = l.liability[i]
		}
	}
	return m
}

// maxWith calcula o pior caso como se a opção idx recebesse mais prizeCents,
// sem alterar o ledger. É o valor comparado contra o pool antes de aceitar.
func (l *oddsLedger) maxWith(idx int, prizeCents int64) int64 {
	var m int64
	for i := 0; i < l.n; i++ {
		v := l.liability[i]
		if i == idx {
			v += prizeCents
		}
		if v > m {
			m = v
		}
	}
	return m
}

// snapshot copia as responsabilidades correntes para leitura externa.
func (l *oddsLedger) snapshot() []int64 {
	out := make([]int64, l.n)
	copy(out, l.liability[:l.n])
	return out
}
