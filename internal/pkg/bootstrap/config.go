package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是整个服务的配置树，来源优先级为 默认值 < yaml 文件 < 环境变量
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	ServiceName string      `yaml:"service_name"`
	Port        int         `yaml:"port"`
	Order       OrderConfig `yaml:"order"`
	Lock        LockConfig  `yaml:"lock"`
}

type OrderConfig struct {
	// RestoreStockOnFailure 控制下单中途失败时是否回补已扣减的库存。
	// 关闭后失败的订单会永久损失库存，仅用于兼容旧行为。
	RestoreStockOnFailure bool `yaml:"restore_stock_on_failure"`
}

type LockConfig struct {
	// Provider 可选 redis、zookeeper、memory
	Provider string `yaml:"provider"`
}

type InfraConfig struct {
	MysqlDSN        string      `yaml:"mysql_dsn"`
	RedisAddr       string      `yaml:"redis_addr"`
	ZookeeperAddrs  []string    `yaml:"zookeeper_addrs"`
	KafkaBrokers    []string    `yaml:"kafka_brokers"`
	KafkaOrderTopic string      `yaml:"kafka_order_topic"`
	JaegerEndpoint  string      `yaml:"jaeger_endpoint"`
	Nacos           NacosConfig `yaml:"nacos"`
}

type NacosConfig struct {
	// ServerAddrs 为空时跳过服务注册
	ServerAddrs string `yaml:"server_addrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

var currentConfig *Config

// Init 加载配置。依次应用默认值、CONFIG_PATH 指向的 yaml 文件、环境变量覆盖。
func Init() error {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	currentConfig = cfg
	return nil
}

// GetCurrentConfig 返回已加载的配置，必须在 Init 之后调用
func GetCurrentConfig() *Config {
	if currentConfig == nil {
		panic("bootstrap: config not initialized, call bootstrap.Init first")
	}
	return currentConfig
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			ServiceName: "commerce-server",
			Port:        8080,
			Order:       OrderConfig{RestoreStockOnFailure: true},
			Lock:        LockConfig{Provider: "redis"},
		},
		Infra: InfraConfig{
			MysqlDSN:        "root:root@tcp(localhost:3306)/mycommerce?charset=utf8mb4&parseTime=True&loc=Local",
			RedisAddr:       "localhost:6379",
			KafkaOrderTopic: "order-events",
			JaegerEndpoint:  "http://localhost:14268/api/traces",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.MysqlDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Infra.RedisAddr = v
	}
	if v := os.Getenv("ZOOKEEPER_ADDRS"); v != "" {
		cfg.Infra.ZookeeperAddrs = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.JaegerEndpoint = v
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		cfg.Infra.Nacos.ServerAddrs = v
	}
	if v := os.Getenv("NACOS_NAMESPACE"); v != "" {
		cfg.Infra.Nacos.Namespace = v
	}
	if v := os.Getenv("NACOS_GROUP"); v != "" {
		cfg.Infra.Nacos.Group = v
	}
	if v := os.Getenv("LOCK_PROVIDER"); v != "" {
		cfg.App.Lock.Provider = v
	}
}
