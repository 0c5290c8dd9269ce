package modes_test

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/codahale/aesbreak/aes"
	"github.com/codahale/aesbreak/modes"
)

func ExampleECB() {
	c, err := aes.New([]byte("YELLOW SUBMARINE"))
	if err != nil {
		panic(err)
	}
	ecb := modes.NewECB(c)

	// Two identical plaintext blocks.
	ciphertext, err := ecb.Encrypt(nil, []byte("attack at dawn!!attack at dawn!!"))
	if err != nil {
		panic(err)
	}

	// ECB encrypts them to identical ciphertext blocks.
	fmt.Println(bytes.Equal(ciphertext[:16], ciphertext[16:32]))
	// Output: true
}

func ExampleCBC() {
	c, err := aes.New([]byte("YELLOW SUBMARINE"))
	if err != nil {
		panic(err)
	}

	// The IV must be unpredictable in real use.
	cbc, err := modes.NewCBC(c, make([]byte, aes.BlockSize))
	if err != nil {
		panic(err)
	}

	ciphertext, err := cbc.Encrypt(nil, []byte("hello world"))
	if err != nil {
		panic(err)
	}
	fmt.Println(len(ciphertext))

	plaintext, err := cbc.Decrypt(nil, ciphertext)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", plaintext)
	// Output:
	// 16
	// hello world
}

func ExampleCTR() {
	c, err := aes.New([]byte("YELLOW SUBMARINE"))
	if err != nil {
		panic(err)
	}
	ctr, err := modes.NewCTR(c, make([]byte, modes.NonceSize))
	if err != nil {
		panic(err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(
		"L77na/nrFsKvynd6HzOoG7GHTLXsTVu9qvY/2syLXzhPweyyMTJULu/6/kXX0KSvoOLSFQ==")
	if err != nil {
		panic(err)
	}

	plaintext, err := ctr.XORKeyStream(nil, ciphertext)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%q\n", plaintext)
	// Output: "Yo, VIP Let's kick it Ice, Ice, baby Ice, Ice, baby "
}
