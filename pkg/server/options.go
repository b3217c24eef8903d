package server

type Options struct {
	Listen string       `json:"listen,omitempty"`
	TLS    *TLSOptions  `json:"tls,omitempty"`
	OIDC   *OIDCOptions `json:"oidc,omitempty"`
}

type TLSOptions struct {
	CertFile string `json:"certFile,omitempty"`
	KeyFile  string `json:"keyFile,omitempty"`
}

type OIDCOptions struct {
	Issuer string `json:"issuer,omitempty"`
}

func DefaultOptions() *Options {
	return &Options{
		Listen: ":8080",
		TLS:    &TLSOptions{},
		OIDC:   &OIDCOptions{},
	}
}
