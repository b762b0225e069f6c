package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"portgrab/internal/core/logger"

	"gopkg.in/yaml.v3"
)

// Config 全局配置结构体
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
	Proxy  ProxyConfig  `yaml:"proxy"`
	API    APIConfig    `yaml:"api"`
}

// ScanConfig 扫描配置
type ScanConfig struct {
	StartPort  int     `yaml:"start_port"`
	EndPort    int     `yaml:"end_port"`
	Threads    int     `yaml:"threads"`     // 同时在途的探测数量上限
	Timeout    float64 `yaml:"timeout"`     // 单端口超时（秒），连接与横幅读取共用
	ShowClosed bool    `yaml:"show_closed"` // 结果中包含关闭端口
	Stats      bool    `yaml:"stats"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Format string `yaml:"format"` // csv / json / both / xlsx / all
	Prefix string `yaml:"prefix"` // 文件名前缀（不含扩展名）
}

// LogConfig 日志配置结构体
type LogConfig struct {
	Level       string `yaml:"level"`        // 日志级别
	ColorOutput bool   `yaml:"color_output"` // 彩色输出
}

// ProxyConfig 代理配置
type ProxyConfig struct {
	UpstreamProxy string `yaml:"upstream_proxy"` // socks5://host:port，为空表示直连
}

// APIConfig HTTP API 配置
type APIConfig struct {
	Listen             string `yaml:"listen"`
	MaxConcurrentScans int    `yaml:"max_concurrent_scans"`
}

// 全局配置实例
var GlobalConfig *Config

// DefaultConfig 返回内置默认配置
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			StartPort: 1,
			EndPort:   1024,
			Threads:   200,
			Timeout:   1.0,
		},
		Output: OutputConfig{
			Format: "csv",
			Prefix: "scan_results",
		},
		Log: LogConfig{
			Level:       "info",
			ColorOutput: true,
		},
		API: APIConfig{
			Listen:             ":9090",
			MaxConcurrentScans: 4,
		},
	}
}

// LoadConfig 加载配置文件，未出现在文件中的字段保留默认值
func LoadConfig(configPath string) (*Config, error) {
	logger.Debugf("[config.go] 开始加载配置文件: %s", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	GlobalConfig = config
	logger.Debugf("[config.go] 配置文件加载成功: threads=%d timeout=%.2fs format=%s",
		config.Scan.Threads, config.Scan.Timeout, config.Output.Format)
	return config, nil
}

// validateConfig 验证配置文件
// 端口范围在扫描前由 portscan 包统一校验，这里只检查与端口无关的字段
func validateConfig(config *Config) error {
	if config.Scan.Threads <= 0 {
		return fmt.Errorf("并发数必须大于0")
	}
	if config.Scan.Timeout <= 0 {
		return fmt.Errorf("超时时间必须大于0")
	}
	if !IsValidFormat(config.Output.Format) {
		return fmt.Errorf("不支持的输出格式: %s", config.Output.Format)
	}
	if strings.TrimSpace(config.Output.Prefix) == "" {
		return fmt.Errorf("输出文件前缀不能为空")
	}
	if config.Proxy.UpstreamProxy != "" {
		u, err := url.Parse(config.Proxy.UpstreamProxy)
		if err != nil || u.Host == "" {
			return fmt.Errorf("上游代理地址无效: %s", config.Proxy.UpstreamProxy)
		}
	}
	if config.API.MaxConcurrentScans <= 0 {
		return fmt.Errorf("API并发扫描数必须大于0")
	}
	return nil
}

// IsValidFormat 检查输出格式是否受支持
func IsValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "csv", "json", "both", "xlsx", "all":
		return true
	}
	return false
}

// InitConfig 初始化配置（自动查找配置文件），未找到时使用默认配置
func InitConfig(explicitPath string) error {
	if explicitPath != "" {
		_, err := LoadConfig(explicitPath)
		return err
	}

	configPaths := []string{
		"config.yaml",
		"./configs/config.yaml",
	}
	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err == nil {
			if _, err := LoadConfig(configPath); err != nil {
				return fmt.Errorf("加载配置文件 %s 失败: %w", configPath, err)
			}
			return nil
		}
	}

	logger.Debugf("[config.go] 未找到配置文件，使用默认配置")
	GlobalConfig = DefaultConfig()
	return nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if GlobalConfig == nil {
		GlobalConfig = DefaultConfig()
	}
	return GlobalConfig
}
