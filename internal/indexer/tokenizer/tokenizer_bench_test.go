package tokenizer

import (
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short": "Vestido longo estampado floral com alças finas",
	"medium": `Sapato scarpin em couro legítimo, salto alto fino e bico fino.
        Palmilha acolchoada para maior conforto, solado em borracha
        antiderrapante. Ideal para ocasiões formais e para o trabalho.`,
	"long": strings.Repeat(`Blusa feminina de malha com decote em V e mangas curtas.
        Tecido leve e macio, perfeito para o dia a dia. Combine com calça jeans
        ou saia midi para um visual casual e elegante. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for _, stem := range []bool{false, true} {
		a := New(stem)
		for name, text := range sampleTexts {
			if stem {
				name += "_stem"
			}
			b.Run(name, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(text)))
				for i := 0; i < b.N; i++ {
					_ = a.Tokenize(text)
				}
			})
		}
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	a := New(false)
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = a.Tokenize(text)
		}
	})
}

func BenchmarkQuery(b *testing.B) {
	a := New(false)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = a.Query("vestido longo vestido floral")
	}
}
