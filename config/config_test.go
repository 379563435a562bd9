package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SEQUENCER", "")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("SHOP_TIMEZONE", "UTC")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Port != 6543 {
		t.Errorf("DB.Port = %d, want 6543", cfg.DB.Port)
	}
	if cfg.Shop.Sequencer != SequencerPostgres {
		t.Errorf("Sequencer = %q, want %q", cfg.Shop.Sequencer, SequencerPostgres)
	}
	if cfg.Store != StorePostgres {
		t.Errorf("Store = %q, want %q", cfg.Store, StorePostgres)
	}
	if cfg.HTTP.RateBurst != 10 {
		t.Errorf("RateBurst = %d, want 10", cfg.HTTP.RateBurst)
	}
	if cfg.Shop.Location.String() != "UTC" {
		t.Errorf("Location = %s, want UTC", cfg.Shop.Location)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"postgres dev", Config{Store: StorePostgres, Shop: ShopConfig{Sequencer: SequencerPostgres}}, false},
		{"redis without addr", Config{Store: StorePostgres, Shop: ShopConfig{Sequencer: SequencerRedis}}, true},
		{"redis with addr", Config{Store: StorePostgres, Shop: ShopConfig{Sequencer: SequencerRedis}, Redis: RedisConfig{Addr: "localhost:6379"}}, false},
		{"unknown sequencer", Config{Store: StorePostgres, Shop: ShopConfig{Sequencer: "zookeeper"}}, true},
		{"production without secret", Config{Store: StorePostgres, Shop: ShopConfig{Sequencer: SequencerMemory}, HTTP: HTTPConfig{Production: true}}, true},
		{"unknown store", Config{Store: "mongo", Shop: ShopConfig{Sequencer: SequencerMemory}}, true},
		{"negative tolerance", Config{Store: StorePostgres, Shop: ShopConfig{Sequencer: SequencerMemory, TotalTolerance: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsDevSecret(t *testing.T) {
	cfg := Config{Store: StorePostgres, Shop: ShopConfig{Sequencer: SequencerMemory}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Session.Secret == "" {
		t.Error("expected a development session secret")
	}
}

func TestValidateMemoryStoreUsesMemorySequencer(t *testing.T) {
	cfg := Config{Store: StoreMemory, Shop: ShopConfig{Sequencer: SequencerPostgres}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Shop.Sequencer != SequencerMemory {
		t.Errorf("Sequencer = %q, want %q", cfg.Shop.Sequencer, SequencerMemory)
	}
}
