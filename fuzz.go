package hashcheck

import (
	"bytes"
	"testing"

	fuzz "github.com/trailofbits/go-fuzz-utils"

	"github.com/codahale/hashcheck/gen"
	"github.com/codahale/hashcheck/oracle"
)

// Fuzz runs a native fuzz target which decodes a message and a chunk schedule from each input, feeds the message to
// the subject one chunk at a time, and compares the digest with the reference's digest of the whole message.
func Fuzz(f *testing.F, subject Subject, ref *oracle.Oracle) {
	drbg := gen.NewDRBG("hashcheck fuzz " + subject.Name)
	for range 10 {
		f.Add(drbg.Data(1024))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		tp, err := fuzz.NewTypeProvider(data)
		if err != nil {
			t.Skip(err)
		}

		msg, err := tp.GetBytes()
		if err != nil {
			t.Skip(err)
		}

		cuts, err := tp.GetUint16()
		if err != nil {
			t.Skip(err)
		}

		in, err := subject.Create()
		if err != nil {
			t.Fatal(err)
		}

		rem := msg
		for range cuts % 32 {
			n, err := tp.GetUint16()
			if err != nil {
				break
			}
			n %= uint16(min(len(rem)+1, 1<<16-1))
			in.Update(rem[:n])
			rem = rem[n:]
		}
		in.Update(rem)

		got, err := in.Digest()
		if err != nil {
			t.Fatal(err)
		}

		if want := ref.Digest(msg); !bytes.Equal(got, want) {
			t.Fatalf("chunked digest of %d bytes = %x, want %x", len(msg), got, want)
		}
	})
}
